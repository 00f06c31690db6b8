package bridge

import (
	"encoding/json"
	"time"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/tidwall/gjson"
)

// Frame types sent by the device agent.
const (
	frameHello         = "hello"
	frameEvent         = "event"
	frameResponse      = "response"
	frameGestureResult = "gesture_result"
)

// Methods the host can call on the agent.
const (
	methodRoot            = "root"
	methodFocus           = "focus"
	methodPerformAction   = "perform_action"
	methodDispatchGesture = "dispatch_gesture"
	methodScreenshot      = "screenshot"
	methodAnnounce        = "announce"
)

// request is the only frame type the host sends.
type request struct {
	Type   string      `json:"type"`
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

type reply struct {
	ok     bool
	err    string
	result gjson.Result
}

type gestureParams struct {
	Points        []model.Point `json:"points"`
	StartOffsetMS int64         `json:"start_offset_ms"`
	DurationMS    int64         `json:"duration_ms"`
}

func newGestureParams(p model.GesturePath) gestureParams {
	return gestureParams{
		Points:        p.Points,
		StartOffsetMS: p.StartOffset.Milliseconds(),
		DurationMS:    p.Duration.Milliseconds(),
	}
}

type actionParams struct {
	Ref    string `json:"ref"`
	Action int    `json:"action"`
}

type announceParams struct {
	Text string `json:"text"`
}

func parseReply(msg []byte) (string, reply) {
	r := gjson.ParseBytes(msg)
	return r.Get("id").String(), reply{
		ok:     r.Get("ok").Bool(),
		err:    r.Get("error").String(),
		result: r.Get("result"),
	}
}

// parseNode decodes a node tree from a JSON object. Non-objects yield nil.
func parseNode(v gjson.Result) (*model.Node, error) {
	if !v.IsObject() {
		return nil, nil
	}
	var n model.Node
	if err := json.Unmarshal([]byte(v.Raw), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// parseEvent converts an event frame body. at maps device uptime in
// milliseconds to host time.
func parseEvent(v gjson.Result, at func(uptimeMS int64) time.Time) model.Event {
	name := v.Get("kind").String()
	ev := model.Event{
		Kind: model.ParseEventKind(name),
		Name: name,
		Time: at(v.Get("time_ms").Int()),
	}
	for _, t := range v.Get("text").Array() {
		ev.Text = append(ev.Text, t.String())
	}
	if src, err := parseNode(v.Get("source")); err == nil {
		ev.Source = src
	}
	return ev
}
