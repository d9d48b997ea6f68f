package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"frontdesk/internal/app/uow"
	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

// Factory wires Mongo sessions into the generic UnitOfWork interface.
// Writing units run inside a multi-document transaction, which needs a
// replica set deployment.
type Factory struct {
	DB *mongo.Database

	Rooms  domainroom.Repository
	Stays  domainstay.Repository
	Groups domaingroup.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:     db,
		Rooms:  NewRoomRepository(db),
		Stays:  NewStayRepository(db),
		Groups: NewGroupRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{session: session, rooms: f.Rooms, stays: f.Stays, groups: f.Groups}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.inTxn = true
	return unit, nil
}

type Unit struct {
	session mongo.Session
	inTxn   bool

	rooms  domainroom.Repository
	stays  domainstay.Repository
	groups domaingroup.Repository
}

func (u *Unit) Rooms() domainroom.Repository   { return u.rooms }
func (u *Unit) Stays() domainstay.Repository   { return u.stays }
func (u *Unit) Groups() domaingroup.Repository { return u.groups }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if !u.inTxn {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("%w: %v", domainstay.ErrConcurrentUpdate, err)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if !u.inTxn {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories called with ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
