package domain

const (
	OverlayCommand    = "command"
	OverlayToast      = "toast"
	OverlayCounter    = "counter"
	OverlayNowPlaying = "foobar"
	OverlayImages     = "images"
)

type Effect interface {
	effect()
}

type ChatReply struct {
	Text string
}

type OverlayBroadcast struct {
	Kind    string
	Payload map[string]any
}

type PersistCounters struct {
	Snapshot map[string]int64
}

func (ChatReply) effect()        {}
func (OverlayBroadcast) effect() {}
func (PersistCounters) effect()  {}

// Outcome agrupa los efectos que produce un evento, en orden.
type Outcome struct {
	Effects []Effect
}

func (o *Outcome) Say(text string) {
	if text == "" {
		return
	}
	o.Effects = append(o.Effects, ChatReply{Text: text})
}

func (o *Outcome) Broadcast(kind string, payload map[string]any) {
	o.Effects = append(o.Effects, OverlayBroadcast{Kind: kind, Payload: payload})
}

func (o *Outcome) Persist(snapshot map[string]int64) {
	o.Effects = append(o.Effects, PersistCounters{Snapshot: snapshot})
}

func (o *Outcome) Merge(other Outcome) {
	o.Effects = append(o.Effects, other.Effects...)
}

func (o Outcome) Empty() bool {
	return len(o.Effects) == 0
}

func (o Outcome) Replies() []ChatReply {
	var out []ChatReply
	for _, e := range o.Effects {
		if r, ok := e.(ChatReply); ok {
			out = append(out, r)
		}
	}
	return out
}

func (o Outcome) Broadcasts() []OverlayBroadcast {
	var out []OverlayBroadcast
	for _, e := range o.Effects {
		if b, ok := e.(OverlayBroadcast); ok {
			out = append(out, b)
		}
	}
	return out
}

// LastSnapshot devuelve el último snapshot de contadores, si hay.
func (o Outcome) LastSnapshot() (map[string]int64, bool) {
	for i := len(o.Effects) - 1; i >= 0; i-- {
		if p, ok := o.Effects[i].(PersistCounters); ok {
			return p.Snapshot, true
		}
	}
	return nil, false
}
