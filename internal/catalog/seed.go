package catalog

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// SeedFile is the YAML document consumed by cmd/seed.
type SeedFile struct {
	Services []SeedService `yaml:"services" validate:"required,min=1,dive"`
}

// SeedService describes one catalog entry. Prices are in cents.
type SeedService struct {
	Slug                 string `yaml:"slug" validate:"required,max=64,slug"`
	Name                 string `yaml:"name" validate:"required,max=120"`
	Description          string `yaml:"description"`
	SetupPriceCents      *int64 `yaml:"setup_price_cents" validate:"omitempty,gte=0"`
	MonthlyPriceCents    *int64 `yaml:"monthly_price_cents" validate:"omitempty,gte=0"`
	StripeSetupPriceID   string `yaml:"stripe_setup_price_id" validate:"omitempty,startswith=price_"`
	StripeMonthlyPriceID string `yaml:"stripe_monthly_price_id" validate:"omitempty,startswith=price_"`
	Active               *bool  `yaml:"active"`
	SortOrder            int    `yaml:"sort_order"`
}

// ParseSeed decodes and validates a seed document. Unknown keys are rejected
// so typos in price fields do not silently seed nulls.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file SeedFile
	if err := dec.Decode(&file); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seed file")
	}
	if err := validate.Struct(&file); err != nil {
		return nil, formatValidationErrors(err)
	}

	seen := make(map[string]struct{}, len(file.Services))
	for _, svc := range file.Services {
		if _, dup := seen[svc.Slug]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate slug in seed file").
				WithDetails(map[string]any{"slug": svc.Slug})
		}
		seen[svc.Slug] = struct{}{}
	}
	return &file, nil
}

// Seed upserts every service in file by slug and returns how many rows were written.
func Seed(ctx context.Context, repo Repository, file *SeedFile) (int, error) {
	for i, svc := range file.Services {
		model := svc.toModel()
		if err := repo.UpsertBySlug(ctx, model); err != nil {
			return i, fmt.Errorf("upsert service %q: %w", svc.Slug, err)
		}
	}
	return len(file.Services), nil
}

func (s SeedService) toModel() *models.Service {
	active := true
	if s.Active != nil {
		active = *s.Active
	}
	return &models.Service{
		Slug:                 s.Slug,
		Name:                 strings.TrimSpace(s.Name),
		Description:          optionalString(s.Description),
		SetupPriceCents:      s.SetupPriceCents,
		MonthlyPriceCents:    s.MonthlyPriceCents,
		StripeSetupPriceID:   optionalString(s.StripeSetupPriceID),
		StripeMonthlyPriceID: optionalString(s.StripeMonthlyPriceID),
		Active:               active,
		SortOrder:            s.SortOrder,
	}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "seed validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Namespace()] = fe.Tag()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "seed validation failed").WithDetails(details)
}
