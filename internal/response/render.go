package response

import (
	"context"
	"encoding/json"
	"fmt"

	"defense_queue/internal/events"
	"defense_queue/internal/identity"
	"defense_queue/internal/models"
)

// Renderer собирает представления снимков, подставляя имена пользователей.
type Renderer struct {
	Directory        identity.Directory
	MaxClaimsPerUser int
}

func (r Renderer) Queue(ctx context.Context, q *models.Queue) QueueView {
	v := QueueView{
		ID:        q.ID,
		SubjectID: q.SubjectID,
		IsActive:  q.IsActive,
		Config:    q.Config,
		HighWater: q.HighWater,
		Ceiling:   q.EffectiveCeiling(),
		Entries:   make([]EntryView, 0, len(q.Entries)),
		UpdatedAt: q.UpdatedAt,
	}
	for _, e := range q.Entries {
		v.Entries = append(v.Entries, EntryView{
			SlotPosition: e.Slot,
			UserID:       e.UserID,
			DisplayName:  r.Directory.DisplayName(ctx, e.UserID),
			LabNumber:    e.LabNumber,
			Status:       string(e.Status),
			Attempts:     e.Attempts,
			Exhausted:    e.Exhausted(q.Config.MaxAttempts),
			JoinedAt:     e.JoinedAt,
		})
	}
	return v
}

func (r Renderer) TopicList(ctx context.Context, l *models.TopicList) TopicListView {
	v := TopicListView{
		SubjectID:        l.SubjectID,
		MaxTopics:        l.MaxTopics,
		MaxClaimsPerUser: r.MaxClaimsPerUser,
		Entries:          make([]TopicView, 0, len(l.Entries)),
		UpdatedAt:        l.UpdatedAt,
	}
	for _, e := range l.Entries {
		v.Entries = append(v.Entries, TopicView{
			TopicNumber: e.TopicNumber,
			UserID:      e.UserID,
			DisplayName: r.Directory.DisplayName(ctx, e.UserID),
			ClaimedAt:   e.ClaimedAt,
		})
	}
	return v
}

// Event сериализует событие движка в сообщение для WebSocket.
func (r Renderer) Event(ctx context.Context, ev events.Event) ([]byte, error) {
	msg := EventMessage{ID: ev.ID, EventType: ev.Type, Channel: ev.Channel, At: ev.At}
	switch data := ev.Data.(type) {
	case *models.Queue:
		msg.Data = r.Queue(ctx, data)
	case *models.TopicList:
		msg.Data = r.TopicList(ctx, data)
	default:
		return nil, fmt.Errorf("render event %s: unsupported payload %T", ev.Type, ev.Data)
	}
	return json.Marshal(msg)
}
