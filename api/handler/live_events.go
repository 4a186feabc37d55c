package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"mailtrace/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 认证走查询参数里的token（已在路由层校验），这里放开Origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFeedEvent 推送给前端的事件帧
type liveFeedEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// wsSubscriber 把事件总线的通知搬进连接自己的缓冲通道
// 通道满了直接丢，慢消费者不能拖住发布方
type wsSubscriber struct {
	events chan liveFeedEvent
}

func (s *wsSubscriber) HandleEvent(event eventbus.Event) error {
	select {
	case s.events <- liveFeedEvent{
		Type:      event.GetType(),
		Timestamp: event.GetTimestamp(),
		Data:      event.GetData(),
	}:
	default:
	}
	return nil
}

// LiveEvents 实时事件推送处理器
// 打开/下载事件发生时通过WebSocket推给已连接的面板
func LiveEvents(bus eventbus.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		subscriber := &wsSubscriber{events: make(chan liveFeedEvent, 64)}
		if err := bus.Subscribe(subscriber); err != nil {
			log.Errorf("live feed subscribe failed: %v", err)
			return
		}
		defer bus.Unsubscribe(subscriber)

		// 读协程只为感知对端关闭
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case event := <-subscriber.events:
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ticker.C:
				// 心跳，穿透中间代理的空闲超时
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}
