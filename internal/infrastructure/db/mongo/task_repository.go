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

type TaskRepository struct {
	store *Store
}

type mongoTask struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Cost        primitive.Decimal128 `bson:"cost"`
	ProjectID   string               `bson:"project_id"`
	OwnerID     string               `bson:"owner_id"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (m mongoTask) toDomain() (*domain.Task, error) {
	cost, err := fromDecimal128(m.Cost)
	if err != nil {
		return nil, fmt.Errorf("task %s cost: %w", m.ID, err)
	}
	return &domain.Task{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Cost:        cost,
		ProjectID:   m.ProjectID,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

func (r *TaskRepository) col() *mongo.Collection {
	return r.store.coll(collectionTasks)
}

// budgetFilter matches the project only while cost + add stays within budget.
func budgetFilter(projectID string, add primitive.Decimal128) bson.M {
	return bson.M{
		"_id": projectID,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$cost", add}},
			"$budget",
		}},
	}
}

// CreateWithinBudget increments the project cost through a conditional
// update and inserts the task in the same transaction. The conditional
// update is evaluated by the server against the stored cost.
func (r *TaskRepository) CreateWithinBudget(ctx context.Context, task *domain.Task) (*domain.Project, error) {
	cost, err := toDecimal128(task.Cost)
	if err != nil {
		return nil, err
	}
	doc := mongoTask{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		Cost:        cost,
		ProjectID:   task.ProjectID,
		OwnerID:     task.OwnerID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	res, err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		projects := r.store.coll(collectionProjects)
		update := bson.M{
			"$inc": bson.M{"cost": cost},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		}
		var m mongoProject
		err := projects.FindOneAndUpdate(sc, budgetFilter(task.ProjectID, cost), update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := findProject(sc, projects, task.ProjectID); findErr != nil {
				return nil, findErr
			}
			return nil, domain.ErrOutOfBudget
		}
		if err != nil {
			return nil, fmt.Errorf("charge project: %w", err)
		}

		if _, err := r.col().InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		return m.toDomain()
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Project), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var m mongoTask
	if err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return m.toDomain()
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	cur, err := r.col().Find(ctx, bson.M{"project_id": projectID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		t, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}

	var m mongoTask
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return m.toDomain()
}

// DeleteAndRelease removes the task and subtracts its cost in one transaction.
func (r *TaskRepository) DeleteAndRelease(ctx context.Context, id string) (*domain.Project, error) {
	res, err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var m mongoTask
		if err := r.col().FindOneAndDelete(sc, bson.M{"_id": id}).Decode(&m); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrTaskNotFound
			}
			return nil, fmt.Errorf("delete task: %w", err)
		}

		released, err := fromDecimal128(m.Cost)
		if err != nil {
			return nil, err
		}
		negated, err := toDecimal128(released.Neg())
		if err != nil {
			return nil, err
		}
		update := bson.M{
			"$inc": bson.M{"cost": negated},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		}
		var p mongoProject
		err = r.store.coll(collectionProjects).FindOneAndUpdate(sc, bson.M{"_id": m.ProjectID}, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("release project cost: %w", err)
		}
		return p.toDomain()
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Project), nil
}
