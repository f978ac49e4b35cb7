package sdk

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Region is a market/locale descriptor, e.g. {"id": 2840}.
type Region map[string]interface{}

// Keyword is a single tracked search term, e.g. {"keyword": "running shoes"}.
type Keyword map[string]string

// TaskPayload is the body of a create-task call. Build it with
// NewTaskPayload, which applies defaults and validates every field.
//
// List fields are always non-nil so they serialize as [] rather than null.
type TaskPayload struct {
	Name                    string    `json:"name" validate:"required"`
	URL                     string    `json:"url" validate:"required,url"`
	Competitors             []string  `json:"competitors" validate:"dive,required"`
	DataCollectionFrequency int       `json:"dataCollectionFrequency" validate:"gte=0"`
	YandexRegions           []Region  `json:"yandexRegions"`
	GoogleRegions           []Region  `json:"googleRegions"`
	Keywords                []Keyword `json:"keywords" validate:"dive,len=1"`
}

// TaskOption sets an optional TaskPayload field.
type TaskOption func(*TaskPayload)

// WithCompetitors sets the competitor domains to track.
func WithCompetitors(competitors ...string) TaskOption {
	return func(p *TaskPayload) {
		p.Competitors = append(p.Competitors, competitors...)
	}
}

// WithDataCollectionFrequency sets the polling frequency.
func WithDataCollectionFrequency(frequency int) TaskOption {
	return func(p *TaskPayload) {
		p.DataCollectionFrequency = frequency
	}
}

// WithYandexRegions sets the Yandex regions to collect data for.
func WithYandexRegions(regions ...Region) TaskOption {
	return func(p *TaskPayload) {
		p.YandexRegions = append(p.YandexRegions, regions...)
	}
}

// WithGoogleRegions sets the Google regions to collect data for.
func WithGoogleRegions(regions ...Region) TaskOption {
	return func(p *TaskPayload) {
		p.GoogleRegions = append(p.GoogleRegions, regions...)
	}
}

// WithKeywords sets the keywords to track.
func WithKeywords(keywords ...Keyword) TaskOption {
	return func(p *TaskPayload) {
		p.Keywords = append(p.Keywords, keywords...)
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonFieldName(f.Tag.Get("json"))
		})
	})
	return validate
}

// NewTaskPayload validates and builds a create-task payload. It fails with
// an ErrorTypeValidation error when name is empty, taskURL is not an
// absolute http(s) URL, the frequency is negative, a competitor is empty,
// or a keyword does not hold exactly one entry.
//
// Example:
//
//	payload, err := sdk.NewTaskPayload("Test Task", "https://example.com",
//	    sdk.WithCompetitors("competitor1.com"),
//	    sdk.WithKeywords(sdk.Keyword{"keyword": "test"}),
//	)
func NewTaskPayload(name, taskURL string, opts ...TaskOption) (*TaskPayload, error) {
	p := &TaskPayload{
		Name:          strings.TrimSpace(name),
		URL:           strings.TrimSpace(taskURL),
		Competitors:   []string{},
		YandexRegions: []Region{},
		GoogleRegions: []Region{},
		Keywords:      []Keyword{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the payload against the create-task schema.
func (p *TaskPayload) Validate() error {
	if err := payloadValidator().Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return NewValidationError(fieldPath(fe.Namespace()), describeTag(fe.Tag(), fe.Param()))
		}
		return NewValidationError("payload", err.Error())
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("url", "must be an absolute http or https URL")
	}
	return nil
}

// createTaskBody is the wire form of a create-task call.
type createTaskBody struct {
	APIKey string `json:"apikey"`
	*TaskPayload
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "value is required"
	case "url":
		return "must be an absolute http or https URL"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "len":
		return fmt.Sprintf("must contain exactly %s entry", param)
	default:
		return fmt.Sprintf("failed %q check", tag)
	}
}

// fieldPath strips the struct name from a validator namespace:
// "TaskPayload.keywords[0]" becomes "keywords[0]".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func jsonFieldName(tag string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
