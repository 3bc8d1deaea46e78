package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"lodging/internal/app/commands"
	"lodging/internal/domain/shared/errs"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

// IdempotencyRecord is the stored outcome of the first execution of a key.
// Failures keep their taxonomy so a replay surfaces the same error kind.
type IdempotencyRecord struct {
	Key        string
	Command    string
	Payload    []byte
	Error      string
	ErrorKind  string
	ErrorCode  string
	ErrorDates []time.Time
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
	// ErrIdempotencyKeyReused is returned when a key is replayed for a different command.
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key used by another command")
)

// Idempotency replays the stored outcome of a command whose key was seen
// before. Only outcomes the caller caused are stored; internal failures leave
// the key free for a retry.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idCmd, codec)
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				Command:    cmd.Key(),
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				var domainErr *errs.Error
				if !errors.As(err, &domainErr) || domainErr.Kind == errs.KindInternal {
					return nil, err
				}
				record.Error = domainErr.Message
				record.ErrorKind = string(domainErr.Kind)
				record.ErrorCode = domainErr.Code
				record.ErrorDates = domainErr.Dates
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Command != "" && rec.Command != cmd.Key() {
		return nil, errs.Validation(errs.CodeInvalidInput, "idempotency key reused", ErrIdempotencyKeyReused)
	}
	if rec.ErrorKind != "" {
		return nil, &errs.Error{
			Kind:    errs.Kind(rec.ErrorKind),
			Code:    rec.ErrorCode,
			Message: rec.Error,
			Dates:   rec.ErrorDates,
		}
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
