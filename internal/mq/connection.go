package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectionState 连接状态
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

var stateNames = [...]string{"disconnected", "connecting", "connected", "reconnecting", "closed"}

func (s ConnectionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// maxReconnectBackoff 重连退避上限
const maxReconnectBackoff = time.Minute

var errManagerClosed = errors.New("connection manager closed")

// ConnectionManager 持有事件发布使用的 RabbitMQ 连接。
// 连接意外断开后按指数退避重连，重连成功后通知发布者丢弃旧通道。
type ConnectionManager struct {
	config *Config
	logger *zap.Logger

	mu   sync.RWMutex
	conn *amqp.Connection

	state      atomic.Int32
	reconnects atomic.Int32
	done       chan struct{}
	closeOnce  sync.Once

	dial          func(url string, cfg amqp.Config) (*amqp.Connection, error)
	onReconnected func()
}

// NewConnectionManager 创建连接管理器，此时尚未拨号
func NewConnectionManager(config *Config, logger *zap.Logger) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		config: config,
		logger: logger.With(zap.String("component", "rabbitmq")),
		done:   make(chan struct{}),
		dial:   amqp.DialConfig,
	}
}

// Connect 首次建立连接，失败时状态回到 disconnected
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	if !cm.transition(StateDisconnected, StateConnecting) {
		return fmt.Errorf("connect rabbitmq: already %s", cm.GetState())
	}

	cm.logger.Info("connecting", zap.String("url", cm.config.RedactedURL()))
	conn, err := cm.open(ctx)
	if err != nil {
		cm.transition(StateConnecting, StateDisconnected)
		return fmt.Errorf("connect rabbitmq: %w", err)
	}

	cm.logger.Info("connected")
	go cm.watch(conn)
	return nil
}

// Channel 在当前连接上打开新通道，调用方负责关闭
func (cm *ConnectionManager) Channel() (*amqp.Channel, error) {
	if state := cm.GetState(); state != StateConnected {
		return nil, fmt.Errorf("rabbitmq is %s", state)
	}

	cm.mu.RLock()
	conn := cm.conn
	cm.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq connection is closed")
	}
	return conn.Channel()
}

// IsConnected 是否处于已连接状态
func (cm *ConnectionManager) IsConnected() bool {
	return cm.GetState() == StateConnected
}

// GetState 当前连接状态
func (cm *ConnectionManager) GetState() ConnectionState {
	return ConnectionState(cm.state.Load())
}

// ReconnectCount 累计重连尝试次数
func (cm *ConnectionManager) ReconnectCount() int {
	return int(cm.reconnects.Load())
}

// Close 停止重连并关闭连接，可重复调用
func (cm *ConnectionManager) Close() error {
	var err error
	cm.closeOnce.Do(func() {
		cm.state.Store(int32(StateClosed))
		close(cm.done)

		cm.mu.Lock()
		defer cm.mu.Unlock()
		if cm.conn != nil {
			err = cm.conn.Close()
			cm.conn = nil
		}
		cm.logger.Info("closed")
	})
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func (cm *ConnectionManager) transition(from, to ConnectionState) bool {
	return cm.state.CompareAndSwap(int32(from), int32(to))
}

// open 拨号并替换当前连接
func (cm *ConnectionManager) open(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := cm.dial(cm.config.URL, amqp.Config{
		Heartbeat: cm.config.HeartbeatInterval,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "blog-events-publisher",
		},
	})
	if err != nil {
		return nil, err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.GetState() == StateClosed {
		_ = conn.Close()
		return nil, errManagerClosed
	}
	if cm.conn != nil && !cm.conn.IsClosed() {
		_ = cm.conn.Close()
	}
	cm.conn = conn
	cm.state.Store(int32(StateConnected))
	return conn, nil
}

// watch 等待连接关闭通知，意外断开时触发重连
func (cm *ConnectionManager) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case amqpErr, ok := <-closed:
		if !ok || amqpErr == nil {
			return
		}
		if !cm.transition(StateConnected, StateReconnecting) {
			return
		}
		if !cm.config.EnableReconnect {
			cm.logger.Error("connection lost, reconnect disabled", zap.Error(amqpErr))
			cm.transition(StateReconnecting, StateDisconnected)
			return
		}
		cm.logger.Warn("connection lost, reconnecting", zap.Error(amqpErr))
		go cm.reconnect()
	case <-cm.done:
	}
}

func (cm *ConnectionManager) reconnect() {
	limit := cm.config.MaxReconnectAttempts

	for attempt := 1; limit <= 0 || attempt <= limit; attempt++ {
		select {
		case <-cm.done:
			return
		case <-time.After(reconnectBackoff(cm.config.ReconnectInterval, attempt)):
		}

		cm.reconnects.Add(1)
		ctx, cancel := context.WithTimeout(context.Background(), cm.config.ReconnectInterval)
		conn, err := cm.open(ctx)
		cancel()

		if errors.Is(err, errManagerClosed) {
			return
		}
		if err != nil {
			cm.logger.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		cm.logger.Info("reconnected", zap.Int("attempt", attempt))
		if cm.onReconnected != nil {
			cm.onReconnected()
		}
		go cm.watch(conn)
		return
	}

	cm.logger.Error("giving up reconnecting", zap.Int("max_attempts", limit))
	cm.transition(StateReconnecting, StateDisconnected)
}

// reconnectBackoff 第 n 次重连前的等待时间：base, 2*base, 4*base ... 不超过上限
func reconnectBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= maxReconnectBackoff {
			return maxReconnectBackoff
		}
	}
	return wait
}
