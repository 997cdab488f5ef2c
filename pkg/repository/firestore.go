package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionLayouts  = "layouts"
	collectionProfiles = "profiles"
)

// Firestore implements Repository on Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

type layoutDoc struct {
	ID         string    `firestore:"id"`
	Name       string    `firestore:"name"`
	Components []string  `firestore:"components"`
	Grid       any       `firestore:"grid"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

type profileDoc struct {
	ID                 string    `firestore:"id"`
	Persona            string    `firestore:"persona"`
	Preferences        any       `firestore:"preferences"`
	ConsciousnessState float64   `firestore:"consciousness_state"`
	UpdatedAt          time.Time `firestore:"updated_at"`
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) GetLayout(ctx context.Context, id model.LayoutID) (*model.Layout, error) {
	probe := model.Layout{ID: id}
	if probe.Validate() != nil {
		return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
	}

	snap, err := r.client.Collection(collectionLayouts).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get layout", goerr.V("id", id))
	}
	return decodeLayout(snap)
}

func (r *Firestore) PutLayout(ctx context.Context, layout *model.Layout) error {
	if err := layout.Validate(); err != nil {
		return goerr.Wrap(err, "invalid layout", goerr.V("id", layout.ID))
	}

	components := make([]string, 0, len(layout.Components))
	for _, c := range layout.Components {
		components = append(components, string(c))
	}
	doc := layoutDoc{
		ID:         string(layout.ID),
		Name:       layout.Name,
		Components: components,
		Grid:       layout.Grid.Any(),
		UpdatedAt:  time.Now().UTC(),
	}

	if _, err := r.client.Collection(collectionLayouts).Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put layout", goerr.V("id", layout.ID))
	}
	return nil
}

func (r *Firestore) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	iter := r.client.Collection(collectionLayouts).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var layouts []*model.Layout
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate layouts")
		}

		l, err := decodeLayout(snap)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

func (r *Firestore) GetProfile(ctx context.Context, id model.ProfileID) (*model.UserProfile, error) {
	probe := model.UserProfile{ID: id}
	if probe.Validate() != nil {
		return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
	}

	snap, err := r.client.Collection(collectionProfiles).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("id", id))
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("id", id))
	}
	preferences, err := model.FromAny(doc.Preferences)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode preferences", goerr.V("id", id))
	}

	return &model.UserProfile{
		ID:                 model.ProfileID(doc.ID),
		Persona:            doc.Persona,
		Preferences:        preferences,
		ConsciousnessState: doc.ConsciousnessState,
	}, nil
}

func (r *Firestore) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return goerr.Wrap(err, "invalid profile", goerr.V("id", profile.ID))
	}

	doc := profileDoc{
		ID:                 string(profile.ID),
		Persona:            profile.Persona,
		Preferences:        profile.Preferences.Any(),
		ConsciousnessState: profile.ConsciousnessState,
		UpdatedAt:          time.Now().UTC(),
	}
	if _, err := r.client.Collection(collectionProfiles).Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("id", profile.ID))
	}
	return nil
}

func decodeLayout(snap *firestore.DocumentSnapshot) (*model.Layout, error) {
	var doc layoutDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode layout", goerr.V("doc", snap.Ref.ID))
	}

	grid, err := model.FromAny(doc.Grid)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode grid", goerr.V("doc", snap.Ref.ID))
	}

	l := &model.Layout{
		ID:   model.LayoutID(doc.ID),
		Name: doc.Name,
		Grid: grid,
	}
	for _, c := range doc.Components {
		l.Components = append(l.Components, model.ComponentID(c))
	}
	return l, nil
}
