package templaterepofakes

import (
	"context"
	"sort"
	"sync"

	"github.com/tessera-id/tessera/emailtemplates"
)

var _ emailtemplates.Repo = (*FakeTemplateRepo)(nil)

type FakeTemplateRepo struct {
	templates map[string]*emailtemplates.Template
	lock      sync.RWMutex
}

func NewFakeTemplateRepo() *FakeTemplateRepo {
	return &FakeTemplateRepo{templates: make(map[string]*emailtemplates.Template)}
}

func (tr *FakeTemplateRepo) Create(_ context.Context, template *emailtemplates.Template) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	copied := *template
	tr.templates[template.ID] = &copied
	return nil
}

func (tr *FakeTemplateRepo) Get(_ context.Context, tenancyID, id string) (*emailtemplates.Template, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	template, ok := tr.templates[id]
	if !ok || template.TenancyID != tenancyID {
		return nil, emailtemplates.ErrTemplateNotFound
	}
	return template, nil
}

func (tr *FakeTemplateRepo) List(_ context.Context, tenancyID string) ([]*emailtemplates.Template, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	out := make([]*emailtemplates.Template, 0)
	for _, template := range tr.templates {
		if template.TenancyID == tenancyID {
			out = append(out, template)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (tr *FakeTemplateRepo) Delete(_ context.Context, tenancyID, id string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	template, ok := tr.templates[id]
	if !ok || template.TenancyID != tenancyID {
		return emailtemplates.ErrTemplateNotFound
	}
	delete(tr.templates, id)
	return nil
}
