package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type ProjectRepository struct {
	store *Store
}

type mongoProject struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Budget      primitive.Decimal128 `bson:"budget"`
	Cost        primitive.Decimal128 `bson:"cost"`
	OwnerID     string               `bson:"owner_id"`
	WorkspaceID string               `bson:"workspace_id"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newMongoProject(p *domain.Project) (mongoProject, error) {
	budget, err := toDecimal128(p.Budget)
	if err != nil {
		return mongoProject{}, err
	}
	cost, err := toDecimal128(p.Cost)
	if err != nil {
		return mongoProject{}, err
	}
	return mongoProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Budget:      budget,
		Cost:        cost,
		OwnerID:     p.OwnerID,
		WorkspaceID: p.WorkspaceID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (m mongoProject) toDomain() (*domain.Project, error) {
	budget, err := fromDecimal128(m.Budget)
	if err != nil {
		return nil, fmt.Errorf("project %s budget: %w", m.ID, err)
	}
	cost, err := fromDecimal128(m.Cost)
	if err != nil {
		return nil, fmt.Errorf("project %s cost: %w", m.ID, err)
	}
	return &domain.Project{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Budget:      budget,
		Cost:        cost,
		OwnerID:     m.OwnerID,
		WorkspaceID: m.WorkspaceID,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

func (r *ProjectRepository) col() *mongo.Collection {
	return r.store.coll(collectionProjects)
}

// Create inserts the project and bumps the parent workspace's project count
// in one transaction. The workspace write conflicts with a concurrent
// WorkspaceRepository.DeleteIfEmpty, so a project never outlives its workspace.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	doc, err := newMongoProject(p)
	if err != nil {
		return err
	}
	_, err = r.store.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		filter, update := projectCountUpdate(p.WorkspaceID, 1)
		res, err := r.store.coll(collectionWorkspaces).UpdateOne(sc, filter, update)
		if err != nil {
			return nil, fmt.Errorf("claim workspace: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrWorkspaceNotFound
		}
		if _, err := r.col().InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("insert project: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	return findProject(ctx, r.col(), id)
}

func findProject(ctx context.Context, col *mongo.Collection, id string) (*domain.Project, error) {
	var m mongoProject
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return m.toDomain()
}

func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error) {
	cur, err := r.col().Find(ctx, bson.M{"workspace_id": workspaceID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var docs []mongoProject
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	out := make([]*domain.Project, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update guards a budget change with cost <= budget in the filter, so the
// check and the write see the same document version.
func (r *ProjectRepository) Update(ctx context.Context, id string, upd domain.ProjectUpdate) (*domain.Project, error) {
	filter := bson.M{"_id": id}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Budget != nil {
		budget, err := toDecimal128(*upd.Budget)
		if err != nil {
			return nil, err
		}
		set["budget"] = budget
		filter["cost"] = bson.M{"$lte": budget}
	}

	var m mongoProject
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col().FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, domain.ErrBudgetBelowCost
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return m.toDomain()
}

func (r *ProjectRepository) DeleteIfEmpty(ctx context.Context, id string) error {
	_, err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		n, err := r.store.coll(collectionTasks).CountDocuments(sc, bson.M{"project_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return nil, fmt.Errorf("count tasks: %w", err)
		}
		if n > 0 {
			return nil, domain.ErrProjectNotEmpty
		}
		var m mongoProject
		if err := r.col().FindOneAndDelete(sc, bson.M{"_id": id}).Decode(&m); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrProjectNotFound
			}
			return nil, fmt.Errorf("delete project: %w", err)
		}
		filter, update := projectCountUpdate(m.WorkspaceID, -1)
		if _, err := r.store.coll(collectionWorkspaces).UpdateOne(sc, filter, update); err != nil {
			return nil, fmt.Errorf("release workspace: %w", err)
		}
		return nil, nil
	})
	return err
}
