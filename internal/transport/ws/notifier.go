package ws

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/domain"
)

// Publisher delivers a feed event to subscribers. The Hub publishes to local
// connections; the Redis broker fans out across processes first.
type Publisher interface {
	Publish(event *Event)
}

// HubNotifier implements service.Notifier on top of a Publisher.
type HubNotifier struct {
	pub Publisher
	log logrus.FieldLogger
}

func NewHubNotifier(pub Publisher, log logrus.FieldLogger) *HubNotifier {
	return &HubNotifier{pub: pub, log: log.WithField("module", "ws")}
}

func (n *HubNotifier) NotifyNewVoice(voice *domain.Voice) {
	n.publish(EventTypeVoiceNew, voice.ID, VoicePayload{
		ID:       voice.ID,
		UserID:   voice.UserID,
		AudioURL: domain.AudioURL(voice.File),
		City:     voice.City,
		Country:  voice.Country,
	})
}

func (n *HubNotifier) NotifyReply(voiceID uuid.UUID, reply *domain.Reply) {
	n.publish(EventTypeVoiceReplied, voiceID, ReplyPayload{
		ID:       reply.ID,
		UserID:   reply.UserID,
		AudioURL: domain.AudioURL(reply.File),
	})
}

func (n *HubNotifier) NotifyLike(voiceID uuid.UUID, likes int) {
	n.publish(EventTypeVoiceLiked, voiceID, LikePayload{Likes: likes})
}

func (n *HubNotifier) NotifyDeletedVoice(voiceID uuid.UUID) {
	n.publish(EventTypeVoiceDeleted, voiceID, nil)
}

func (n *HubNotifier) publish(eventType string, voiceID uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, &voiceID, payload)
	if err != nil {
		n.log.WithError(err).Error("marshal event")
		return
	}
	n.pub.Publish(evt)
}
