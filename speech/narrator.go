package speech

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Narrator voices chat replies. It is best effort: any failure is logged and yields an
// empty URL so the reply still goes out.
type Narrator struct {
	synth    Synthesizer
	store    AudioStore
	language string
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewNarrator builds a Narrator. A positive timeout bounds synthesis and storage together.
func NewNarrator(synth Synthesizer, store AudioStore, language string, timeout time.Duration, log logrus.FieldLogger) *Narrator {
	return &Narrator{synth: synth, store: store, language: language, timeout: timeout, log: log}
}

// Narrate returns the audio URL for text, or "" when speech is off or anything fails.
// A nil Narrator is valid and always returns "".
func (n *Narrator) Narrate(ctx context.Context, text string) string {
	if n == nil || n.synth == nil || n.store == nil || text == "" {
		return ""
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	audio, err := n.synth.Synthesize(ctx, text, n.language)
	if err != nil {
		n.log.WithError(err).Warn("Narrator.Synthesize.Error")
		return ""
	}

	name := uuid.NewString() + ".mp3"
	url, err := n.store.Save(ctx, name, audio)
	if err != nil {
		n.log.WithError(err).WithField("file", name).Warn("Narrator.Save.Error")
		return ""
	}
	return url
}
