package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Pose is an entry of the pose library: display metadata plus the angle
// rules used to score it.
type Pose struct {
	ID          uuid.UUID  `json:"id,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Name        string     `json:"name" validate:"required,min=1,max=120"`
	Description string     `json:"description,omitempty" validate:"max=4000"`
	ImageURL    string     `json:"image_url,omitempty" validate:"omitempty,url"`
	Config      PoseConfig `json:"config" validate:"required,min=1"`
	CreatedAt   time.Time  `json:"created_at,omitzero"`
	UpdatedAt   time.Time  `json:"updated_at,omitzero"`
}

// Validate validates the pose metadata and every rule of its config.
func (p *Pose) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return err
	}
	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnsureSlug derives the slug from the name when none is set.
func (p *Pose) EnsureSlug() {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify turns a pose name into its library key: whitespace runs become
// underscores and the result is lower-cased ("Warrior II" -> "warrior_ii").
func Slugify(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_"))
}

// PoseDocument is the authored form of a pose: what pose files contain and
// what the API accepts on create and update.
type PoseDocument struct {
	Name        string     `json:"name" jsonschema:"minLength=1,maxLength=120"`
	Slug        string     `json:"slug,omitempty" jsonschema:"pattern=^[a-z0-9_]+$"`
	Description string     `json:"description,omitempty" jsonschema:"maxLength=4000"`
	ImageURL    string     `json:"image_url,omitempty" jsonschema:"format=uri"`
	Config      PoseConfig `json:"config"`
}

// Pose converts the document into a library entry with its slug derived.
func (d PoseDocument) Pose() *Pose {
	p := &Pose{
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Config:      d.Config,
	}
	p.EnsureSlug()
	return p
}
