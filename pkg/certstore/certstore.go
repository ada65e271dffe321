package certstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Store mirrors certificate proofs to Cloudinary. The database row keeps the
// payload itself; the mirrored copy only serves display links.
type Store struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary-backed certificate store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Store{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "certstore").Logger(),
	}, nil
}

// Store uploads the certificate payload and returns a secure URL.
func (s *Store) Store(ctx context.Context, name string, payload []byte) (string, error) {
	params := uploader.UploadParams{
		Folder:       strings.Trim(s.folder, "/"),
		PublicID:     buildPublicID(name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, bytes.NewReader(payload), params)
	if err != nil {
		return "", fmt.Errorf("failed to upload certificate: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("certificate mirrored to cloudinary")

	return result.SecureURL, nil
}

func buildPublicID(name string) string {
	base := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, name)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "certificate"
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
