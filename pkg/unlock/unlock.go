// Package unlock removes encryption, publishing rights and unknown effects
// from a decoded KFN container.
//
// Unlock runs three stages once, in order, on a container it has exclusive
// access to:
//
//  1. decrypt every encrypted subfile with the FLID key and zero the key
//  2. reset the RGHT publishing-rights flag
//  3. drop unknown effect sections from SONG subfiles
//
// Running Unlock on an already unlocked container changes nothing.
package unlock

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/EchoTools/kfntools/pkg/ecb"
	"github.com/EchoTools/kfntools/pkg/kfn"
	"github.com/EchoTools/kfntools/pkg/songini"
)

// ErrDeclaredLength is returned when a subfile declares more plaintext than its ciphertext holds.
var ErrDeclaredLength = errors.New("declared length exceeds payload")

// Report summarizes what Unlock changed.
type Report struct {
	Decrypted      int                 // subfiles decrypted
	KeyCleared     bool                // FLID was reset to zero
	RightsReset    bool                // RGHT was present and set to 0
	RemovedEffects map[string][]string // SONG subfile name -> removed sections
}

// EffectsRemoved returns the total number of removed effect sections.
func (r *Report) EffectsRemoved() int {
	n := 0
	for _, names := range r.RemovedEffects {
		n += len(names)
	}
	return n
}

// Changed reports whether any stage modified the container.
func (r *Report) Changed() bool {
	return r.Decrypted > 0 || r.KeyCleared || r.RightsReset || r.EffectsRemoved() > 0
}

type config struct {
	logger *slog.Logger
	valid  songini.EffectSet
}

// Option configures Unlock.
type Option func(*config)

// WithLogger sets the logger used to report stage progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidEffects replaces the set of effect ids that are kept.
func WithValidEffects(valid songini.EffectSet) Option {
	return func(c *config) {
		if valid != nil {
			c.valid = valid
		}
	}
}

// Unlock mutates c in place. On error the container may be partially
// modified and must be discarded.
func Unlock(c *kfn.Container, opts ...Option) (*Report, error) {
	cfg := &config{
		logger: slog.New(slog.DiscardHandler),
		valid:  songini.DefaultEffects,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	report := &Report{RemovedEffects: make(map[string][]string)}

	if err := decryptStage(c, cfg, report); err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	rightsStage(c, cfg, report)
	if err := effectStage(c, cfg, report); err != nil {
		return nil, fmt.Errorf("filter effects: %w", err)
	}

	return report, nil
}

func decryptStage(c *kfn.Container, cfg *config, report *Report) error {
	v, ok := c.Headers.Get(kfn.TagKey)
	if !ok {
		cfg.logger.Debug("no FLID header, skipping decryption")
		return nil
	}
	if c.HasZeroKey() {
		cfg.logger.Debug("FLID is zero, skipping decryption")
		return nil
	}
	if v.Kind != kfn.KindBytes {
		return fmt.Errorf("%w: FLID holds a %s value", ecb.ErrInvalidKeyLength, v.Kind)
	}
	key := v.Bytes
	if len(key) != kfn.KeySize {
		return fmt.Errorf("%w: FLID holds %d bytes", ecb.ErrInvalidKeyLength, len(key))
	}

	for _, sf := range c.Subfiles {
		if !sf.Encrypted {
			continue
		}
		if int(sf.Length) > len(sf.Data) {
			return fmt.Errorf("subfile %q: %w: %d > %d", sf.Name, ErrDeclaredLength, sf.Length, len(sf.Data))
		}
		plain, err := ecb.Decrypt(sf.Data, key)
		if err != nil {
			return fmt.Errorf("subfile %q: %w", sf.Name, err)
		}
		sf.Data = plain[:sf.Length]
		sf.Encrypted = false
		report.Decrypted++
		cfg.logger.Debug("decrypted subfile",
			slog.String("subfile", string(sf.Name)),
			slog.String("type", sf.Type.String()),
			slog.Int("length", int(sf.Length)),
		)
	}

	c.Headers.Set(kfn.TagKey, kfn.BytesValue(make([]byte, kfn.KeySize)))
	report.KeyCleared = true
	return nil
}

func rightsStage(c *kfn.Container, cfg *config, report *Report) {
	v, ok := c.Headers.Get(kfn.TagRights)
	if !ok {
		return
	}
	if v.Kind == kfn.KindUint32 && v.Uint == 0 {
		return
	}
	c.Headers.Set(kfn.TagRights, kfn.Uint32Value(0))
	report.RightsReset = true
	cfg.logger.Debug("reset publishing rights", slog.String("previous", v.String()))
}

func effectStage(c *kfn.Container, cfg *config, report *Report) error {
	for _, sf := range c.Subfiles {
		if sf.Type != kfn.TypeSong {
			continue
		}
		out, removed, err := songini.Rewrite(sf.Data, cfg.valid)
		if err != nil {
			return fmt.Errorf("subfile %q: %w", sf.Name, err)
		}
		sf.Data = out
		sf.Length = uint32(len(out))
		if len(removed) > 0 {
			report.RemovedEffects[string(sf.Name)] = removed
			cfg.logger.Debug("removed effects",
				slog.String("subfile", string(sf.Name)),
				slog.Any("sections", removed),
			)
		}
	}
	return nil
}
