package posauth

import (
	"context"
	"fmt"

	"github.com/BradenHooton/posauth/internal/device"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/pkg/httpx"
)

// TrustDevice registers this terminal on the backend's trusted-device list
// ("remember this device"). Trust lives server-side; the client only
// submits its identity.
func (c *Coordinator) TrustDevice(ctx context.Context) error {
	req := models.TrustDeviceRequest{
		DeviceID: c.devices.GetOrCreateDeviceID(ctx),
		Device:   device.DescribeDevice(c.config.UserAgent),
	}

	resp, err := c.doAuthed(ctx, false, pathDevices, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("trust device failed: %w", models.ErrBadRequest)
	}
	return nil
}

// ListTrustedDevices fetches the backend's trusted-device list.
func (c *Coordinator) ListTrustedDevices(ctx context.Context) ([]models.TrustedDevice, error) {
	resp, err := c.doAuthed(ctx, true, pathDevices, nil)
	if err != nil {
		return nil, err
	}

	var payload models.DeviceListPayload
	if err := httpx.DecodeData(resp, &payload); err != nil {
		return nil, fmt.Errorf("malformed device list: %w", err)
	}
	return payload.Devices, nil
}

// RevokeTrustedDevice removes one device from the trusted list.
func (c *Coordinator) RevokeTrustedDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return &models.ValidationError{Field: "device_id", Reason: "device id is required"}
	}

	resp, err := c.doAuthed(ctx, false, pathDeviceRevoke, models.RevokeRequest{ID: deviceID})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("revoke device failed: %w", models.ErrBadRequest)
	}
	return nil
}
