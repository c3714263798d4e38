package customvision

import (
	"fmt"
	"time"
)

const IterationCompleted = "Completed"

type Domain struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Exportable bool   `json:"exportable"`
	Enabled    bool   `json:"enabled"`
}

type ProjectSettings struct {
	DomainId           string `json:"domainId"`
	ClassificationType string `json:"classificationType,omitempty"`
}

type Project struct {
	Id           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Settings     ProjectSettings `json:"settings"`
	Created      time.Time       `json:"created"`
	LastModified time.Time       `json:"lastModified"`
}

type Tag struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageCount  int    `json:"imageCount"`
}

type Iteration struct {
	Id           string     `json:"id"`
	Name         string     `json:"name"`
	IsDefault    bool       `json:"isDefault"`
	Status       string     `json:"status"`
	Created      time.Time  `json:"created"`
	LastModified time.Time  `json:"lastModified"`
	TrainedAt    *time.Time `json:"trainedAt,omitempty"`
	ProjectId    string     `json:"projectId"`
	Exportable   bool       `json:"exportable"`
	DomainId     string     `json:"domainId,omitempty"`
}

type Image struct {
	Id       string    `json:"id"`
	Created  time.Time `json:"created"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	ImageUri string    `json:"imageUri,omitempty"`
}

type ImageCreateResult struct {
	SourceUrl string `json:"sourceUrl"`
	Status    string `json:"status"`
	Image     *Image `json:"image,omitempty"`
}

type ImageCreateSummary struct {
	IsBatchSuccessful bool                `json:"isBatchSuccessful"`
	Images            []ImageCreateResult `json:"images"`
}

// APIError is the error body the training service returns with non-2xx
// responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("training api returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("training api returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}
