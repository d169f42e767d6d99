package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// WorkspaceRepository stores domain.Workspace documents as-is.
type WorkspaceRepository struct {
	store *Store
}

func (r *WorkspaceRepository) col() *mongo.Collection {
	return r.store.coll(collectionWorkspaces)
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	if ws.MemberIDs == nil {
		ws.MemberIDs = []string{}
	}
	if _, err := r.col().InsertOne(ctx, ws); err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	return &ws, nil
}

func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"member_ids": userID},
	}}
	cur, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out := []*domain.Workspace{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode workspaces: %w", err)
	}
	return out, nil
}

func (r *WorkspaceRepository) Rename(ctx context.Context, id, name string) (*domain.Workspace, error) {
	update := bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ws domain.Workspace
	if err := r.col().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("rename workspace: %w", err)
	}
	return &ws, nil
}

// projectCountUpdate adjusts the project_count kept on the workspace document.
// Project inserts and deletes write it so they conflict with DeleteIfEmpty.
func projectCountUpdate(workspaceID string, delta int) (filter, update bson.M) {
	filter = bson.M{"_id": workspaceID}
	update = bson.M{"$inc": bson.M{"project_count": delta}}
	return filter, update
}

// DeleteIfEmpty counts projects and deletes in one transaction. A project
// created concurrently has written this workspace document, so the delete
// hits a write conflict and the transaction is retried against the new count.
func (r *WorkspaceRepository) DeleteIfEmpty(ctx context.Context, id string) error {
	_, err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		n, err := r.store.coll(collectionProjects).CountDocuments(sc, bson.M{"workspace_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return nil, fmt.Errorf("count projects: %w", err)
		}
		if n > 0 {
			return nil, domain.ErrWorkspaceNotEmpty
		}
		res, err := r.col().DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("delete workspace: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, nil
	})
	return err
}

func (r *WorkspaceRepository) AddMember(ctx context.Context, workspaceID, userID string) error {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"_id": workspaceID, "member_ids": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"member_ids": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, workspaceID, domain.ErrAlreadyMember)
	}
	return nil
}

func (r *WorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"_id": workspaceID, "member_ids": userID},
		bson.M{"$pull": bson.M{"member_ids": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, workspaceID, domain.ErrNotMember)
	}
	return nil
}

// missOrConflict tells a missing workspace apart from a failed member guard.
func (r *WorkspaceRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	n, err := r.col().CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count workspace: %w", err)
	}
	if n == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return conflict
}
