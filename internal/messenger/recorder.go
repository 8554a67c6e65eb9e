package messenger

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Sent is one message captured by a Recorder.
type Sent struct {
	Token    string
	Channel  string
	Text     string
	ImageURL string
	Replies  []QuickReply
}

// Recorder is an in-memory Messenger. It records every send and serves them
// back through GetLatest. Recorders created by the same RecorderFactory share
// one ordered journal.
type Recorder struct {
	token   string
	channel string
	journal *journal
	logger  *slog.Logger
	fail    bool
}

type journal struct {
	mu      sync.Mutex
	entries []Sent
}

func (j *journal) add(s Sent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) snapshot(channel string) []Sent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Sent, 0, len(j.entries))
	for _, s := range j.entries {
		if channel == "" || s.Channel == channel {
			out = append(out, s)
		}
	}
	return out
}

// NewRecorder returns a standalone recorder for channel.
func NewRecorder(channel string) *Recorder {
	return &Recorder{channel: channel, journal: &journal{}}
}

// Fail makes subsequent sends report failure without recording.
func (r *Recorder) Fail(fail bool) {
	r.fail = fail
}

// Channel returns the destination this recorder is bound to.
func (r *Recorder) Channel() string {
	return r.channel
}

func (r *Recorder) Send(ctx context.Context, text string) bool {
	return r.SendText(ctx, text, nil)
}

func (r *Recorder) SendText(_ context.Context, text string, replies []QuickReply) bool {
	return r.record(Sent{Text: text, Replies: slices.Clone(replies)})
}

func (r *Recorder) SendImage(_ context.Context, url string, replies []QuickReply) bool {
	return r.record(Sent{ImageURL: url, Replies: slices.Clone(replies)})
}

func (r *Recorder) record(s Sent) bool {
	if r.fail {
		return false
	}
	s.Token = r.token
	s.Channel = r.channel
	r.journal.add(s)
	if r.logger != nil {
		r.logger.Info("message recorded",
			slog.String("channel", s.Channel),
			slog.String("text", s.Text),
			slog.String("image_url", s.ImageURL),
			slog.Int("replies", len(s.Replies)),
		)
	}
	return true
}

// GetLatest returns the most recent message sent to this recorder's channel.
func (r *Recorder) GetLatest(context.Context) (Message, error) {
	entries := r.journal.snapshot(r.channel)
	if len(entries) == 0 {
		return Message{}, ErrNoMessages
	}
	last := entries[len(entries)-1]
	return Message{
		Text:     last.Text,
		ImageURL: last.ImageURL,
		Replies:  slices.Clone(last.Replies),
	}, nil
}

// Sent returns the messages recorded for this recorder's channel.
func (r *Recorder) Sent() []Sent {
	return r.journal.snapshot(r.channel)
}

// RecorderFactory hands out recorders sharing one journal. It backs the local
// platform driver and tests.
type RecorderFactory struct {
	journal *journal
	logger  *slog.Logger
	mu      sync.Mutex
	failing map[string]bool
}

// NewRecorderFactory creates a factory. A nil logger disables send logging.
func NewRecorderFactory(log *slog.Logger) *RecorderFactory {
	f := &RecorderFactory{journal: &journal{}, failing: map[string]bool{}}
	if log != nil {
		f.logger = log.With(slog.String("component", "recorder"))
	}
	return f
}

func (f *RecorderFactory) New(token, channel string) Messenger {
	f.mu.Lock()
	fail := f.failing[channel]
	f.mu.Unlock()
	return &Recorder{
		token:   token,
		channel: channel,
		journal: f.journal,
		logger:  f.logger,
		fail:    fail,
	}
}

// FailChannel makes messengers created afterwards for channel report send failure.
func (f *RecorderFactory) FailChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[channel] = true
}

// Sent returns every recorded message in send order.
func (f *RecorderFactory) Sent() []Sent {
	return f.journal.snapshot("")
}
