package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"youtrait/internal/changefeed"
)

// ChangeEmitter publica cambios de filas cuando el feed no los genera solo.
// Con el driver postgres los triggers ya notifican y publisher es nil.
type ChangeEmitter struct {
	publisher changefeed.Publisher
	logger    *zap.Logger
}

func NewChangeEmitter(publisher changefeed.Publisher, logger *zap.Logger) *ChangeEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeEmitter{publisher: publisher, logger: logger}
}

// Emit nunca falla: la fila ya está escrita y un evento perdido solo retrasa
// la vista hasta la próxima carga.
func (e *ChangeEmitter) Emit(ctx context.Context, table string, op changefeed.Op, newRecord, oldRecord any) {
	if e == nil || e.publisher == nil {
		return
	}
	ev, err := changefeed.NewEvent(table, op, newRecord, oldRecord)
	if err != nil {
		e.logger.Error("change event build failed", zap.String("table", table), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 500*time.Millisecond)
	defer cancel()
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("change event publish failed",
			zap.String("table", table),
			zap.String("op", string(op)),
			zap.Error(err),
		)
	}
}
