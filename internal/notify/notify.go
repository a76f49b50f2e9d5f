// Package notify renders race events into localized voice-line scripts and
// hands them to the delivery channel. The engine emits events; how they are
// vocalized or pushed is this layer's business, delivery mechanics beyond
// the Redis channel belong to the clients.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gridrun/race-api/internal/race"
)

// Language selects the script table.
type Language string

const (
	LangEN Language = "EN"
	LangKR Language = "KR"
)

var scripts = map[Language]map[race.Event]string{
	LangEN: {
		race.EventRaceStart:       "Welcome to the grid. All systems go. Own your streets!",
		race.EventOvertakeWarning: "Warning. Rival proximity critical. Overtake imminent.",
		race.EventZoneBreached:    "Target Zone Breached! Uploading virus... Hold your ground!",
		race.EventSpeedFlag:       "Telemetry anomaly logged for {user}. Keep it on foot.",
	},
	LangKR: {
		race.EventRaceStart:       "레이스 스타트! 당신의 거리를 지배할 시간입니다.",
		race.EventOvertakeWarning: "경고. 라이벌 근접. 추월 임박.",
		race.EventZoneBreached:    "목표 구역 침투 성공! 바이러스 업로드 중... 현재 위치를 사수하세요!",
		race.EventSpeedFlag:       "{user} 텔레메트리 이상 감지. 도보 주행을 유지하세요.",
	},
}

// Publisher is the slice of redis.Client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Notifier implements race.EventSink for one user's session.
type Notifier struct {
	publisher Publisher
	logger    *zap.SugaredLogger
	userID    string
	lang      Language
}

// New builds a notifier delivering to notifications:{userID}.
func New(publisher Publisher, logger *zap.Logger, userID string, lang Language) *Notifier {
	if _, ok := scripts[lang]; !ok {
		lang = LangEN
	}
	return &Notifier{
		publisher: publisher,
		logger:    logger.Sugar(),
		userID:    userID,
		lang:      lang,
	}
}

// Render returns the localized script for an event with {var} placeholders
// interpolated.
func Render(lang Language, event race.Event, vars map[string]string) string {
	table, ok := scripts[lang]
	if !ok {
		table = scripts[LangEN]
	}
	text, ok := table[event]
	if !ok {
		return string(event)
	}
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

type message struct {
	Event race.Event `json:"event"`
	Text  string     `json:"text"`
	Lang  Language   `json:"lang"`
	TS    int64      `json:"ts"`
}

// Notify renders the event and publishes it. Best effort: a failed publish
// is logged and swallowed so notifications never stall the session driver.
func (n *Notifier) Notify(event race.Event, vars map[string]string) {
	text := Render(n.lang, event, vars)
	n.logger.Infow("race event", "user", n.userID, "event", event, "text", text)

	if n.publisher == nil {
		return
	}

	payload, err := json.Marshal(message{
		Event: event,
		Text:  text,
		Lang:  n.lang,
		TS:    time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.publisher.Publish(ctx, "notifications:"+n.userID, payload).Err(); err != nil {
		n.logger.Warnw("failed to publish notification", "user", n.userID, "event", event, "error", err)
	}
}
