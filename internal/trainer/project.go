package trainer

import (
	"context"
	"fmt"
	"log/slog"

	"ftai-trainer/internal/customvision"
)

// GetDomainByName returns the domain with the exact name, or ErrDomainNotFound.
func GetDomainByName(ctx context.Context, api TrainingAPI, name string) (*customvision.Domain, error) {
	domains, err := api.GetDomains(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDomainNotFound, name)
}

// GetOrCreateProject returns the first project called name, creating it under
// the named domain if there is none.
func GetOrCreateProject(ctx context.Context, api TrainingAPI, name, description, domainName string) (*customvision.Project, error) {
	projects, err := api.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Name == name {
			slog.Info("using existing project", "project", name, "project_id", p.Id)
			return &p, nil
		}
	}

	domain, err := GetDomainByName(ctx, api, domainName)
	if err != nil {
		return nil, err
	}

	project, err := api.CreateProject(ctx, name, description, domain.Id)
	if err != nil {
		return nil, err
	}
	slog.Info("created project", "project", name, "project_id", project.Id, "domain", domainName)

	return project, nil
}
