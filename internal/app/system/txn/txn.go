// Package txn runs a group of writes in a MongoDB transaction when the
// deployment supports one, and directly otherwise.
//
// Standalone servers (the usual dev setup) reject transactions; Run then
// falls back to executing fn without a session so the same code path works
// in both environments.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that mean "no transactions here".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // IllegalOperation (legacy)
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err says the deployment cannot run a
// multi-document transaction.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Run executes fn inside a transaction on client. fn must use the ctx it is
// given so its operations join the session. A nil client, or a server that
// refuses transactions, runs fn once without one.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unavailable, running without one", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}
