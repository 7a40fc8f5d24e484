package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/sharetube/watchtogether/internal/repository/connection"
	"golang.org/x/exp/maps"
)

type repo struct {
	connList map[*connection.Conn]string
	idList   map[string]*connection.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*connection.Conn]string),
		idList:   make(map[string]*connection.Conn),
		logger:   logger.With("component", "connection.inmemory"),
	}
}

func (r *repo) Add(conn *connection.Conn, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("add", "user_id", userId)
	if r.connList[conn] != "" || r.idList[userId] != nil {
		r.logger.Info("add", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = userId
	r.idList[userId] = conn

	return nil
}

// RemoveByConn unregisters conn and returns its user id.
func (r *repo) RemoveByConn(conn *connection.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userId, ok := r.connList[conn]
	if !ok {
		r.logger.Info("remove by conn", "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, userId)

	r.logger.Debug("remove by conn", "user_id", userId)
	return userId, nil
}

// RemoveByUserId unregisters the user's connection and returns it.
func (r *repo) RemoveByUserId(userId string) (*connection.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("remove by user id", "user_id", userId)
	conn, ok := r.idList[userId]
	if !ok {
		r.logger.Info("remove by user id", "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, userId)

	return conn, nil
}

func (r *repo) GetConn(userId string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[userId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// GetConns returns connections of the given users that are connected, in argument order.
func (r *repo) GetConns(userIds []string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0, len(userIds))
	for _, userId := range userIds {
		if conn, ok := r.idList[userId]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

// UserIds lists every connected user id in sorted order.
func (r *repo) UserIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userIds := maps.Keys(r.idList)
	sort.Strings(userIds)
	return userIds
}
