package auditlog

import (
	"time"

	"vaultaudit/internal/services/analyze/domain"
)

// Wire structs mirror only the audit entry fields the analyzer consumes.
// Extra fields on a line are ignored by construction.

type entryWire struct {
	Type     string        `json:"type"`
	Time     string        `json:"time"`
	Error    string        `json:"error"`
	Auth     *authWire     `json:"auth"`
	Request  *requestWire  `json:"request"`
	Response *responseWire `json:"response"`
}

type authWire struct {
	Accessor    string `json:"accessor"`
	DisplayName string `json:"display_name"`
	EntityID    string `json:"entity_id"`
	TokenType   string `json:"token_type"`
}

type requestWire struct {
	Operation  string         `json:"operation"`
	Path       string         `json:"path"`
	MountType  string         `json:"mount_type"`
	MountPoint string         `json:"mount_point"`
	Namespace  *namespaceWire `json:"namespace"`
}

type namespaceWire struct {
	ID string `json:"id"`
}

type responseWire struct {
	MountType string `json:"mount_type"`
}

// timeLayouts covers the stamp shapes Vault emits across audit devices
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
}

func parseStamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// toEvent converts a decoded wire entry into a domain Event.
// Required fields: a parseable time, the entry type, and a request path;
// anything less is a parse failure, never an Event.
func (w *entryWire) toEvent() (domain.Event, bool) {
	if w.Type == "" || w.Request == nil || w.Request.Path == "" {
		return domain.Event{}, false
	}
	ts, ok := parseStamp(w.Time)
	if !ok {
		return domain.Event{}, false
	}

	ev := domain.Event{
		Time:     ts,
		Op:       domain.ClassifyOp(w.Request.Operation, w.Request.Path),
		Path:     w.Request.Path,
		ErrorMsg: w.Error,
	}
	if w.Request.Namespace != nil {
		ev.Namespace = w.Request.Namespace.ID
	}
	ev.MountType = w.Request.MountType
	ev.MountPoint = w.Request.MountPoint
	if ev.MountType == "" && w.Response != nil {
		ev.MountType = w.Response.MountType
	}
	if w.Auth != nil {
		ev.EntityID = w.Auth.EntityID
		ev.Accessor = w.Auth.Accessor
		ev.DisplayName = w.Auth.DisplayName
		ev.TokenType = w.Auth.TokenType
	}
	return ev, true
}
