package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"vox/internal/constants"
	"vox/internal/db"
)

func registerUser(t *testing.T, hub *Hub, username string) *Client {
	t.Helper()

	client := NewClient(hub, nil)
	frame := fmt.Sprintf(`{"type":"register","username":%q,"password":"secret1","display_name":%q}`, username, username)
	client.dispatch([]byte(frame))

	payload := receive(t, client)
	resp, ok := payload.(AuthResponse)
	if !ok || !resp.Success {
		t.Fatalf("register reply = %+v, want successful AuthResponse", payload)
	}
	return client
}

func TestDispatchDropsUnauthenticated(t *testing.T) {
	hub, _ := newTestHub(t)
	client := NewClient(hub, nil)

	client.dispatch([]byte(`{"type":"private_message","to":"bob","text":"hi"}`))

	assertEmpty(t, client)
}

func TestDispatchDropsNonAdmin(t *testing.T) {
	hub, _ := newTestHub(t)
	client := registerUser(t, hub, "alice")

	client.dispatch([]byte(`{"type":"admin_action","action":"ban","target":"bob"}`))

	assertEmpty(t, client)
}

func TestDispatchDropsUnknownType(t *testing.T) {
	hub, _ := newTestHub(t)
	client := registerUser(t, hub, "alice")

	client.dispatch([]byte(`{"type":"no_such_operation"}`))

	assertEmpty(t, client)
}

func TestDispatchDropsMalformedFrame(t *testing.T) {
	hub, _ := newTestHub(t)
	client := NewClient(hub, nil)

	client.dispatch([]byte(`not json`))
	client.dispatch([]byte(`{}`))

	assertEmpty(t, client)
}

func TestRegisterDuplicateFails(t *testing.T) {
	hub, _ := newTestHub(t)
	registerUser(t, hub, "alice")

	client := NewClient(hub, nil)
	client.dispatch([]byte(`{"type":"register","username":"alice","password":"secret1"}`))

	payload := receive(t, client)
	resp, ok := payload.(Response)
	if !ok || resp.Success {
		t.Fatalf("reply = %+v, want failure Response", payload)
	}
	if resp.Error != constants.ErrCodeConflict {
		t.Fatalf("error = %q, want %q", resp.Error, constants.ErrCodeConflict)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hub, _ := newTestHub(t)
	registerUser(t, hub, "alice")

	client := NewClient(hub, nil)
	client.dispatch([]byte(`{"type":"login","username":"alice","password":"wrong12"}`))

	payload := receive(t, client)
	resp, ok := payload.(Response)
	if !ok || resp.Success {
		t.Fatalf("reply = %+v, want failure Response", payload)
	}
	if resp.Error != constants.ErrCodeAuthFailed {
		t.Fatalf("error = %q, want %q", resp.Error, constants.ErrCodeAuthFailed)
	}
}

func TestLoginBannedGivesReason(t *testing.T) {
	hub, database := newTestHub(t)
	registerUser(t, hub, "alice")

	if _, err := database.Exec(`UPDATE users SET banned = 1 WHERE username = 'alice'`); err != nil {
		t.Fatalf("banning user: %v", err)
	}

	client := NewClient(hub, nil)
	client.dispatch([]byte(`{"type":"login","username":"alice","password":"secret1"}`))

	payload := receive(t, client)
	resp, ok := payload.(AuthResponse)
	if !ok || resp.Success {
		t.Fatalf("reply = %+v, want failure AuthResponse", payload)
	}
	if resp.Reason != "banned" {
		t.Fatalf("reason = %q, want banned", resp.Reason)
	}
}

func TestAutoLoginRoundTrip(t *testing.T) {
	hub, _ := newTestHub(t)

	first := NewClient(hub, nil)
	first.dispatch([]byte(`{"type":"register","username":"alice","password":"secret1"}`))
	resp := receive(t, first).(AuthResponse)
	if !resp.Success || resp.Token == "" {
		t.Fatalf("register reply = %+v, want success with token", resp)
	}

	second := NewClient(hub, nil)
	frame, _ := json.Marshal(AutoLoginRequest{Username: "alice", Token: resp.Token})
	second.dispatch(wrapType("auto_login", frame))

	reply := receive(t, second).(AuthResponse)
	if !reply.Success {
		t.Fatalf("auto_login reply = %+v, want success", reply)
	}
	if second.Username() != "alice" {
		t.Fatalf("bound username = %q, want alice", second.Username())
	}
}

func TestAutoLoginRejectsStaleToken(t *testing.T) {
	hub, _ := newTestHub(t)

	first := NewClient(hub, nil)
	first.dispatch([]byte(`{"type":"register","username":"alice","password":"secret1"}`))
	resp := receive(t, first).(AuthResponse)

	// A fresh login rotates the stored token; the old one must die.
	second := NewClient(hub, nil)
	second.dispatch([]byte(`{"type":"login","username":"alice","password":"secret1"}`))
	receive(t, second)

	third := NewClient(hub, nil)
	frame, _ := json.Marshal(AutoLoginRequest{Username: "alice", Token: resp.Token})
	third.dispatch(wrapType("auto_login", frame))

	reply := receive(t, third).(Response)
	if reply.Success {
		t.Fatal("auto_login with stale token succeeded")
	}
}

func TestFrozenUserCannotSend(t *testing.T) {
	hub, database := newTestHub(t)
	sender := registerUser(t, hub, "alice")
	registerUser(t, hub, "bob")

	if _, err := database.Exec(`UPDATE users SET frozen = 1 WHERE username = 'alice'`); err != nil {
		t.Fatalf("freezing user: %v", err)
	}

	sender.dispatch([]byte(`{"type":"private_message","to":"bob","text":"hi"}`))

	payload := receive(t, sender)
	resp, ok := payload.(Response)
	if !ok || resp.Success {
		t.Fatalf("reply = %+v, want failure Response", payload)
	}
	if resp.Error != constants.ErrCodeAccountFrozen {
		t.Fatalf("error = %q, want %q", resp.Error, constants.ErrCodeAccountFrozen)
	}
}

func TestAdminDemotionTakesEffectImmediately(t *testing.T) {
	hub, database := newTestHub(t)
	admin := registerUser(t, hub, "root")

	if _, err := database.Exec(`UPDATE users SET role = 'admin' WHERE username = 'root'`); err != nil {
		t.Fatalf("promoting user: %v", err)
	}
	registerUser(t, hub, "victim")

	admin.dispatch([]byte(`{"type":"admin_action","action":"freeze","target":"victim"}`))
	if conf, ok := receive(t, admin).(AdminConfirmation); !ok || !conf.Success {
		t.Fatalf("admin action while admin failed: %+v", conf)
	}

	if _, err := database.Exec(`UPDATE users SET role = 'user' WHERE username = 'root'`); err != nil {
		t.Fatalf("demoting user: %v", err)
	}

	admin.dispatch([]byte(`{"type":"admin_action","action":"unfreeze","target":"victim"}`))
	assertEmpty(t, admin)
}

func TestPrivateMessageFansOutToRecipientDevices(t *testing.T) {
	hub, _ := newTestHub(t)
	sender := registerUser(t, hub, "alice")
	phone := registerUser(t, hub, "bob")
	laptop := NewClient(hub, nil)
	hub.Bind(laptop, "bob")

	sender.lastContentAt = sender.lastContentAt.Add(-minMessageInterval)
	sender.dispatch([]byte(`{"type":"private_message","to":"bob","text":"hi"}`))

	if resp, ok := receive(t, sender).(PrivateMessageResponse); !ok || !resp.Success {
		t.Fatalf("sender reply = %+v, want success", resp)
	}
	for _, device := range []*Client{phone, laptop} {
		push, ok := receive(t, device).(NewPrivateMessagePayload)
		if !ok || push.Message == nil || push.Message.Content != "hi" {
			t.Fatalf("push = %+v, want new message payload", push)
		}
	}
}

func TestHelperMessageReachesAdmins(t *testing.T) {
	hub, database := newTestHub(t)
	admin := registerUser(t, hub, "root")
	if _, err := database.Exec(`UPDATE users SET role = 'admin' WHERE username = 'root'`); err != nil {
		t.Fatalf("promoting user: %v", err)
	}
	user := registerUser(t, hub, "alice")

	user.dispatch([]byte(`{"type":"private_message","to":"helper","text":"help me"}`))

	if resp, ok := receive(t, user).(Response); !ok || !resp.Success {
		t.Fatalf("reply = %+v, want success", resp)
	}
	update, ok := receive(t, admin).(SupportUpdatePayload)
	if !ok || update.TicketID != "alice" {
		t.Fatalf("admin push = %+v, want support update for alice", update)
	}

	// The message landed in the ticket store, not in private messages.
	support := db.NewSupportRepository(database)
	thread, err := support.Thread("alice")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if len(thread) != 1 || thread[0].Content != "help me" {
		t.Fatalf("thread = %+v, want the helper message", thread)
	}
}

func wrapType(msgType string, payload []byte) []byte {
	var m map[string]any
	json.Unmarshal(payload, &m)
	m["type"] = msgType
	out, _ := json.Marshal(m)
	return out
}
