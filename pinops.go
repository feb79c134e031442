package posauth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/posauth/internal/events"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/pin"
	"github.com/BradenHooton/posauth/pkg/logger"
)

// SetupPin configures a PIN for the current user. Complexity is validated
// locally first so weak PINs never reach the backend.
func (c *Coordinator) SetupPin(ctx context.Context, newPin string) error {
	if err := c.checkPinComplexity(newPin, events.PinSetupFailed); err != nil {
		return err
	}

	req := models.PinSetupRequest{Pin: newPin}
	if err := c.pinMutation(ctx, pathPinSetup, req, events.PinSetup, events.PinSetupFailed); err != nil {
		return err
	}

	c.logger.Info("pin configured")
	return nil
}

// ChangePin replaces the current PIN. The current PIN is verified
// server-side; the new one is validated locally.
func (c *Coordinator) ChangePin(ctx context.Context, currentPin, newPin string) error {
	if !pin.IsValidFormat(currentPin) {
		c.bus.Emit(events.PinChangeFailed, models.ViolationFormat)
		return &models.ValidationError{Field: "current_pin", Reason: "pin must be exactly 4 digits"}
	}
	if err := c.checkPinComplexity(newPin, events.PinChangeFailed); err != nil {
		return err
	}

	req := models.PinSetupRequest{Pin: newPin, Current: currentPin}
	if err := c.pinMutation(ctx, pathPinChange, req, events.PinChanged, events.PinChangeFailed); err != nil {
		return err
	}

	c.logger.Info("pin changed")
	return nil
}

// VerifyPin re-verifies the current user's PIN before a sensitive action
// (refunds, price overrides). Returns nil when the PIN matched.
func (c *Coordinator) VerifyPin(ctx context.Context, candidate string) error {
	if !pin.IsValidFormat(candidate) {
		return &models.ValidationError{Field: "pin", Reason: "pin must be exactly 4 digits"}
	}

	resp, err := c.doAuthed(ctx, false, pathPinVerify, models.PinVerifyRequest{Pin: candidate})
	if err != nil {
		return err
	}
	if !resp.Success {
		return models.ErrInvalidCredentials
	}
	return nil
}

// DisablePin removes the PIN factor for the current user.
func (c *Coordinator) DisablePin(ctx context.Context) error {
	if err := c.pinMutation(ctx, pathPinDisable, nil, events.PinDisabled, events.PinDisableFailed); err != nil {
		return err
	}
	c.logger.Info("pin disabled")
	return nil
}

// checkPinComplexity runs the local policy and emits the failure event for
// rejected candidates.
func (c *Coordinator) checkPinComplexity(candidate string, failEvent events.Name) error {
	result := pin.ValidateComplexity(candidate)
	if result.Valid {
		return nil
	}
	c.logger.Debug("pin rejected by local policy",
		slog.String("reason", string(result.Reason)),
		logger.PinAttr("pin", candidate))
	c.bus.Emit(failEvent, result.Reason)
	return &models.ValidationError{Field: "pin", Reason: pinReasonText(result.Reason)}
}

// pinMutation runs one authenticated PIN lifecycle call and emits the
// outcome event.
func (c *Coordinator) pinMutation(ctx context.Context, path string, body any, okEvent, failEvent events.Name) error {
	resp, err := c.doAuthed(ctx, false, path, body)
	if err != nil {
		c.bus.Emit(failEvent, nil)
		return err
	}
	if !resp.Success {
		c.logger.Warn("pin operation rejected",
			slog.String("path", path),
			slog.Int("status", resp.Status),
			slog.String("error", resp.Error))
		c.bus.Emit(failEvent, nil)
		return fmt.Errorf("pin operation failed: %w", models.ErrBadRequest)
	}

	c.bus.Emit(okEvent, nil)
	return nil
}

// pinReasonText turns a policy violation into the specific user-facing
// message (never just "invalid").
func pinReasonText(v models.PinViolation) string {
	switch v {
	case models.ViolationFormat:
		return "pin must be exactly 4 digits"
	case models.ViolationCommon:
		return "pin is too common"
	case models.ViolationSequential:
		return "pin must not be a sequence"
	case models.ViolationRepeated:
		return "pin must not repeat a single digit"
	default:
		return "pin is too weak"
	}
}
