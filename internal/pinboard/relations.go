package pinboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ayush/pinboard/backend/internal/models"
)

// Relations keeps both sides of the user/pin association in step.
//
// The store only guarantees single-document atomicity, so every two-sided
// change is a sequence of independent writes with no rollback. Writes are
// ordered so that an interrupted sequence leaves at most a dangling id
// (a reference to a pin or user that no longer exists); readers skip those.
type Relations struct {
	users UserStore
	pins  PinStore
	log   *slog.Logger
}

func NewRelations(users UserStore, pins PinStore, log *slog.Logger) *Relations {
	if log == nil {
		log = slog.Default()
	}
	return &Relations{users: users, pins: pins, log: log}
}

// OnPinCreated appends the new pin to its creator's createdPins.
func (r *Relations) OnPinCreated(ctx context.Context, pin *models.Pin, creator *models.User) error {
	if err := r.users.PushCreatedPin(ctx, creator.ID, pin.ID); err != nil {
		return fmt.Errorf("push created pin: %w", err)
	}
	creator.CreatedPins = append(creator.CreatedPins, pin.ID)
	return nil
}

// OnPinSaved records the bookmark on the user first, then on the pin.
// Both writes are set additions, so repeating a save is harmless.
func (r *Relations) OnPinSaved(ctx context.Context, pin *models.Pin, user *models.User) error {
	if err := r.users.AddSavedPin(ctx, user.ID, pin.ID); err != nil {
		return fmt.Errorf("add saved pin: %w", err)
	}
	if err := r.pins.AddSavedBy(ctx, pin.ID, user.ID); err != nil {
		r.log.WarnContext(ctx, "pin save left one-sided",
			slog.String("pin_id", pin.ID.Hex()),
			slog.String("user_id", user.ID.Hex()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("add saved by: %w", err)
	}
	user.SavedPins = models.AddToSet(user.SavedPins, pin.ID)
	pin.SavedBy = models.AddToSet(pin.SavedBy, user.ID)
	return nil
}

// OnPinUnsaved removes the bookmark from both sides. Removing an absent
// id is a no-op.
func (r *Relations) OnPinUnsaved(ctx context.Context, pin *models.Pin, user *models.User) error {
	if err := r.users.PullSavedPin(ctx, user.ID, pin.ID); err != nil {
		return fmt.Errorf("pull saved pin: %w", err)
	}
	if err := r.pins.PullSavedBy(ctx, pin.ID, user.ID); err != nil {
		r.log.WarnContext(ctx, "pin unsave left one-sided",
			slog.String("pin_id", pin.ID.Hex()),
			slog.String("user_id", user.ID.Hex()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("pull saved by: %w", err)
	}
	user.SavedPins = models.PullID(user.SavedPins, pin.ID)
	pin.SavedBy = models.PullID(pin.SavedBy, user.ID)
	return nil
}

// OnPinDeleted clears every reference to the pin and then deletes it.
// The savedPins cleanup matches on the users' side rather than trusting
// pin.SavedBy, which also repairs a save that was left one-sided.
func (r *Relations) OnPinDeleted(ctx context.Context, pin *models.Pin) error {
	if err := r.users.PullCreatedPin(ctx, pin.UserID, pin.ID); err != nil {
		return fmt.Errorf("pull created pin: %w", err)
	}
	if err := r.users.PullSavedPinFromAll(ctx, pin.ID); err != nil {
		return fmt.Errorf("pull saved pin from users: %w", err)
	}
	if err := r.pins.DeletePin(ctx, pin.ID); err != nil {
		return fmt.Errorf("delete pin: %w", err)
	}
	return nil
}

// OnUserDeleted deletes every pin the user created, removes the user from
// the savedBy of the remaining pins, and finally deletes the user.
func (r *Relations) OnUserDeleted(ctx context.Context, user *models.User) error {
	owner := user.ID
	created, err := r.pins.FindPins(ctx, models.PinFilter{UserID: &owner})
	if err != nil {
		return fmt.Errorf("find created pins: %w", err)
	}
	for i := range created {
		if err := r.OnPinDeleted(ctx, &created[i]); err != nil {
			return err
		}
	}

	if err := r.pins.PullSavedByFromAll(ctx, user.ID); err != nil {
		return fmt.Errorf("pull saved by from pins: %w", err)
	}
	if err := r.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
