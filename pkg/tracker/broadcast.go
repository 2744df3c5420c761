package tracker

import (
	"sync/atomic"

	"go.uber.org/zap"
	"liyu1981.xyz/field-presence-service/pkg/common"
)

type managerGroup interface {
	Managers() []*Session
}

// Hub fans events out to the manager group. Delivery is best effort: a
// session that cannot take the event is closed by Deliver itself and counted
// as dropped once.
type Hub struct {
	group     managerGroup
	published atomic.Int64
	dropped   atomic.Int64
	logger    *zap.Logger
}

func NewHub(group managerGroup) *Hub {
	return &Hub{
		group:  group,
		logger: common.GetCategoryLogger(common.LoggerNameTracker, common.LoggerCategoryBroadcast),
	}
}

func (h *Hub) Publish(evt Event) {
	h.published.Add(1)

	for _, s := range h.group.Managers() {
		// closed by an earlier overflow, waiting for its connection to be released
		if s.Closed() {
			continue
		}
		if !s.Deliver(evt) {
			h.dropped.Add(1)
			h.logger.Warn("Manager session could not take event",
				zap.String("session_id", s.ID),
				zap.String("event", string(evt.Name)),
				zap.String("employee_id", evt.EmployeeID),
			)
		}
	}
}

// Stats returns the number of published events and failed deliveries.
func (h *Hub) Stats() (published int64, dropped int64) {
	return h.published.Load(), h.dropped.Load()
}
