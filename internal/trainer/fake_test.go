package trainer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"ftai-trainer/internal/customvision"
)

type fakeUpload struct {
	filename string
	data     string
	tagIds   []string
}

// fakeAPI is an in-memory TrainingAPI. Iterations report statuses in order,
// one per TrainProject or GetIteration call.
type fakeAPI struct {
	mu sync.Mutex

	domains  []customvision.Domain
	projects []customvision.Project
	tags     map[string][]customvision.Tag
	uploads  []fakeUpload
	statuses []string
	nextId   int

	createProjectCalls int
	createTagCalls     int
	getIterationCalls  int
	defaultIteration   string
}

func newFakeAPI(statuses ...string) *fakeAPI {
	if len(statuses) == 0 {
		statuses = []string{customvision.IterationCompleted}
	}
	return &fakeAPI{
		domains: []customvision.Domain{
			{Id: "d-general", Name: "General"},
			{Id: "d-compact", Name: "General (compact)"},
		},
		tags:     map[string][]customvision.Tag{},
		statuses: statuses,
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextId++
	return fmt.Sprintf("%s-%d", prefix, f.nextId)
}

func (f *fakeAPI) status() string {
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s
}

func (f *fakeAPI) GetDomains(ctx context.Context) ([]customvision.Domain, error) {
	return f.domains, nil
}

func (f *fakeAPI) GetProjects(ctx context.Context) ([]customvision.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]customvision.Project(nil), f.projects...), nil
}

func (f *fakeAPI) CreateProject(ctx context.Context, name, description, domainId string) (*customvision.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createProjectCalls++
	p := customvision.Project{Id: f.id("project"), Name: name, Description: description, Settings: customvision.ProjectSettings{DomainId: domainId}}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeAPI) GetTags(ctx context.Context, projectId string) ([]customvision.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]customvision.Tag(nil), f.tags[projectId]...), nil
}

func (f *fakeAPI) CreateTag(ctx context.Context, projectId, name string) (*customvision.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createTagCalls++
	for _, t := range f.tags[projectId] {
		if t.Name == name {
			return nil, fmt.Errorf("duplicate tag %q", name)
		}
	}
	t := customvision.Tag{Id: f.id("tag"), Name: name}
	f.tags[projectId] = append(f.tags[projectId], t)
	return &t, nil
}

func (f *fakeAPI) CreateImagesFromData(ctx context.Context, projectId, filename string, data io.Reader, tagIds []string) (*customvision.ImageCreateSummary, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fakeUpload{filename: filename, data: string(body), tagIds: tagIds})
	return &customvision.ImageCreateSummary{
		IsBatchSuccessful: true,
		Images:            []customvision.ImageCreateResult{{SourceUrl: filename, Status: "OK"}},
	}, nil
}

func (f *fakeAPI) TrainProject(ctx context.Context, projectId string) (*customvision.Iteration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &customvision.Iteration{Id: "iteration-1", ProjectId: projectId, Status: f.status()}, nil
}

func (f *fakeAPI) GetIteration(ctx context.Context, projectId, iterationId string) (*customvision.Iteration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getIterationCalls++
	return &customvision.Iteration{Id: iterationId, ProjectId: projectId, Status: f.status()}, nil
}

func (f *fakeAPI) UpdateIteration(ctx context.Context, projectId, iterationId string, isDefault bool) (*customvision.Iteration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if isDefault {
		f.defaultIteration = iterationId
	}
	return &customvision.Iteration{Id: iterationId, ProjectId: projectId, Status: customvision.IterationCompleted, IsDefault: isDefault}, nil
}
