package education

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("resource not found")

type ResourceType string

const (
	TypeArticle     ResourceType = "article"
	TypeVideo       ResourceType = "video"
	TypeInteractive ResourceType = "interactive"
)

type Resource struct {
	ID           string       `json:"id"`
	Type         ResourceType `json:"type"`
	Title        string       `json:"title"`
	Summary      string       `json:"summary"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	ContentURL   string       `json:"contentUrl,omitempty"`
	Tags         []string     `json:"tags"`
}

// Catalog is a read-only list of health education resources.
type Catalog struct {
	resources []Resource
}

func NewCatalog(resources []Resource) *Catalog {
	return &Catalog{resources: resources}
}

// DefaultCatalog returns the resources bundled with the service.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Resource{
		{ID: "1", Type: TypeArticle, Title: "Understanding Your Blood Pressure",
			Summary:      "Learn what blood pressure numbers mean and how to manage them effectively through lifestyle changes and medical guidance.",
			ThumbnailURL: "https://picsum.photos/seed/bp/600/400",
			Tags:         []string{"hypertension", "blood pressure", "heart health", "monitoring"}},
		{ID: "2", Type: TypeVideo, Title: "Managing Diabetes: Diet Tips",
			Summary:      "A short video on dietary choices for individuals with diabetes, focusing on balanced meals and sugar control.",
			ThumbnailURL: "https://picsum.photos/seed/diabetes/600/400",
			ContentURL:   "https://www.youtube.com/embed/exampleVideoID1",
			Tags:         []string{"diabetes", "diet", "nutrition", "healthy eating"}},
		{ID: "3", Type: TypeInteractive, Title: "Stress Reduction Exercise",
			Summary:      "A guided breathing exercise and mindfulness session to help manage stress and improve mental well-being.",
			ThumbnailURL: "https://picsum.photos/seed/stress/600/400",
			Tags:         []string{"mental health", "stress", "cbt", "mindfulness", "relaxation"}},
		{ID: "4", Type: TypeArticle, Title: "Benefits of Regular Exercise",
			Summary:      "Discover how physical activity, from walking to strength training, can improve your overall health and longevity.",
			ThumbnailURL: "https://picsum.photos/seed/exercise/600/400",
			Tags:         []string{"fitness", "exercise", "lifestyle", "well-being"}},
		{ID: "5", Type: TypeVideo, Title: "COPD: Symptoms and Management",
			Summary:      "An overview of COPD, its common symptoms, and effective strategies for managing the condition and improving quality of life.",
			ThumbnailURL: "https://picsum.photos/seed/copd/600/400",
			ContentURL:   "https://www.youtube.com/embed/exampleVideoID2",
			Tags:         []string{"copd", "respiratory", "lung health", "breathing"}},
		{ID: "6", Type: TypeArticle, Title: "Healthy Sleep Habits",
			Summary:      "Tips for improving your sleep quality for better health, cognitive function, and emotional well-being.",
			ThumbnailURL: "https://picsum.photos/seed/sleep/600/400",
			Tags:         []string{"sleep", "lifestyle", "mental health", "insomnia"}},
	})
}

// Search matches query case-insensitively against title, summary and tags.
// An empty query returns everything.
func (c *Catalog) Search(query string) []Resource {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Resource, 0, len(c.resources))
	for _, r := range c.resources {
		if q == "" || r.matches(q) {
			out = append(out, r)
		}
	}
	return out
}

func (r Resource) matches(q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Summary), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (c *Catalog) Get(id string) (Resource, error) {
	for _, r := range c.resources {
		if r.ID == id {
			return r, nil
		}
	}
	return Resource{}, ErrNotFound
}
