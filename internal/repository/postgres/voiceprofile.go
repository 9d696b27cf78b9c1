package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/outreach-engine/internal/domain"
)

// VoiceProfileRepo stores the single learned voice profile as a JSONB
// document. The profile is replaced wholesale on each successful batch run,
// never merged, so one row is all there ever is.
type VoiceProfileRepo struct{ db *sql.DB }

// NewVoiceProfileRepo creates a Postgres-backed voice profile repository.
func NewVoiceProfileRepo(db *sql.DB) *VoiceProfileRepo { return &VoiceProfileRepo{db: db} }

// Get returns the stored profile. The second return is false when no batch
// run has committed a profile yet.
func (r *VoiceProfileRepo) Get(ctx context.Context) (domain.VoiceProfile, bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT profile FROM voice_profiles WHERE id = 1`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.VoiceProfile{}, false, nil
	}
	if err != nil {
		return domain.VoiceProfile{}, false, fmt.Errorf("get voice profile: %w", err)
	}

	var profile domain.VoiceProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.VoiceProfile{}, false, fmt.Errorf("decode voice profile: %w", err)
	}
	return profile, true, nil
}

// Replace commits a freshly learned profile, overwriting any previous one.
func (r *VoiceProfileRepo) Replace(ctx context.Context, profile domain.VoiceProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode voice profile: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO voice_profiles (id, profile, sample_count, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			profile = EXCLUDED.profile,
			sample_count = EXCLUDED.sample_count,
			updated_at = NOW()
	`, raw, profile.SampleCount)
	if err != nil {
		return fmt.Errorf("replace voice profile: %w", err)
	}
	return nil
}
