package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// WSConnManager держит websocket-подключения пользователей.
// Запись в одно подключение сериализуется общим мьютексом
type WSConnManager struct {
	mu    sync.Mutex
	users map[int64][]*websocket.Conn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]*websocket.Conn),
	}
}

func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], conn)
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(userID, conn)
}

func (m *WSConnManager) removeLocked(userID int64, conn *websocket.Conn) {
	conns := m.users[userID]
	for i, c := range conns {
		if c == conn {
			m.users[userID] = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Connections возвращает число открытых подключений пользователя
func (m *WSConnManager) Connections(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users[userID])
}

// Send пишет сообщение во все подключения пользователя; сломанные подключения закрываются
func (m *WSConnManager) Send(userID int64, message []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conn := range append([]*websocket.Conn(nil), m.users[userID]...) {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			_ = conn.Close()
			m.removeLocked(userID, conn)
		}
	}
}

// SendEvent отправляет событие активности автору поста
func (m *WSConnManager) SendEvent(event ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	m.Send(event.OwnerID, data)
	return nil
}
