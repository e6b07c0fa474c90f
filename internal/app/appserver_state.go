package app

import (
	"time"

	"replyserver/internal/service/web"
	"replyserver/internal/shared/logger"
	"replyserver/internal/shared/types"
)

// OnExchange 记录已完成的交换并推送到监控页面。
func (s *AppServer) OnExchange(ex *types.Exchange) {
	s.recentLock.Lock()
	s.recent = append(s.recent, ex)
	if len(s.recent) > recentExchangesLimit {
		s.recent = s.recent[len(s.recent)-recentExchangesLimit:]
	}
	s.recentLock.Unlock()

	s.hub.BroadcastExchangeLog(web.NewExchangeLogEntry(ex))
}

// GetRecentExchanges returns the most recent exchanges, oldest first.
func (s *AppServer) GetRecentExchanges() []*types.Exchange {
	s.recentLock.Lock()
	defer s.recentLock.Unlock()
	out := make([]*types.Exchange, len(s.recent))
	copy(out, s.recent)
	return out
}

// statsLoop 定期聚合服务器的统计数据并广播
func (s *AppServer) statsLoop() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	var lastReceived, lastSent uint64
	var lastTimestamp time.Time

	for {
		select {
		case <-ticker.C:
			metrics := s.server.Metrics()
			now := time.Now()
			var rxRate, txRate uint64

			// 计算速率（如果不是第一次）
			if !lastTimestamp.IsZero() {
				elapsed := now.Sub(lastTimestamp).Seconds()
				if elapsed > 0 {
					rxRate = uint64(float64(metrics.BytesReceived-lastReceived) / elapsed)
					txRate = uint64(float64(metrics.BytesSent-lastSent) / elapsed)
				}
			}
			lastReceived = metrics.BytesReceived
			lastSent = metrics.BytesSent
			lastTimestamp = now

			s.hub.BroadcastDashboardUpdate(&web.DashboardStats{
				Timestamp:         now,
				ActiveConnections: metrics.ActiveConnections,
				TotalExchanges:    metrics.TotalExchanges,
				ReceiveRate:       rxRate,
				SendRate:          txRate,
			})
			logger.Debug().
				Int64("active", metrics.ActiveConnections).
				Uint64("exchanges", metrics.TotalExchanges).
				Uint64("failed", metrics.FailedExchanges).
				Msg("Stats tick")
		case <-s.stopCh:
			return
		}
	}
}
