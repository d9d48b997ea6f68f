package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection(roomsCollection)}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainroom.RoomID) (*domainroom.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainroom.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domainroom.Room) error {
	doc := newRoomDocument(room)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *RoomRepository) List(ctx context.Context) ([]*domainroom.Room, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainroom.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// StayRepository persists stays with an optimistic version check. Saving a
// blocking stay also bumps its room's lock document, so two transactions
// booking the same room write-conflict and only one commits.
type StayRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewStayRepository(db *mongo.Database) *StayRepository {
	return &StayRepository{col: db.Collection(staysCollection), locks: db.Collection(roomLocksCollection)}
}

func (r *StayRepository) ByID(ctx context.Context, id domainstay.StayID) (*domainstay.Stay, error) {
	var doc stayDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainstay.ErrStayNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *StayRepository) Save(ctx context.Context, s *domainstay.Stay) error {
	if s.Status.Blocks() {
		if err := r.lockRoom(ctx, s.RoomID); err != nil {
			return err
		}
	}
	doc := newStayDocument(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return domainstay.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainstay.ErrConcurrentUpdate
	}
	s.Version = doc.Version
	return nil
}

func (r *StayRepository) lockRoom(ctx context.Context, roomID domainroom.RoomID) error {
	_, err := r.locks.UpdateOne(ctx,
		bson.M{"_id": string(roomID)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if isWriteConflict(err) || mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: room %s", domainstay.ErrConcurrentUpdate, roomID)
		}
		return err
	}
	return nil
}

const (
	writeConflictCode         = 112
	transientTransactionLabel = "TransientTransactionError"
)

// isWriteConflict reports whether another transaction touched the same
// document first.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTransactionLabel)
}

func (r *StayRepository) ListByRoom(ctx context.Context, roomID domainroom.RoomID) ([]*domainstay.Stay, error) {
	return r.find(ctx, bson.M{"room_id": string(roomID)})
}

func (r *StayRepository) ListByGroup(ctx context.Context, code string) ([]*domainstay.Stay, error) {
	if code == "" {
		return nil, nil
	}
	return r.find(ctx, bson.M{"group_code": code})
}

func (r *StayRepository) find(ctx context.Context, filter bson.M) ([]*domainstay.Stay, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []stayDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainstay.Stay, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

type GroupRepository struct {
	col *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{col: db.Collection(groupsCollection)}
}

func (r *GroupRepository) ByCode(ctx context.Context, code string) (*domaingroup.Group, error) {
	var doc groupDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaingroup.ErrGroupNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *GroupRepository) Save(ctx context.Context, g *domaingroup.Group) error {
	doc := newGroupDocument(g)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.Code}, doc, options.Replace().SetUpsert(true))
	return err
}

var (
	_ domainroom.Repository  = (*RoomRepository)(nil)
	_ domainstay.Repository  = (*StayRepository)(nil)
	_ domaingroup.Repository = (*GroupRepository)(nil)
)
