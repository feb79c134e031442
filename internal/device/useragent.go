package device

import (
	"fmt"
	"strings"

	"github.com/BradenHooton/posauth/internal/models"
)

const (
	UnknownBrowser = "Unknown Browser"
	UnknownOS      = "Unknown OS"

	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeDesktop = "desktop"
)

// DescribeDevice parses a user-agent string into human-readable labels.
// Detection order matters: Chrome's UA contains "Safari", Edge's contains
// "Chrome", and so on. Unknown patterns degrade to the Unknown* labels.
func DescribeDevice(userAgent string) models.DeviceMetadata {
	browser := detectBrowser(userAgent)
	osName := detectOS(userAgent)

	meta := models.DeviceMetadata{
		Name:    fmt.Sprintf("%s on %s", browser, osName),
		Browser: browser,
		OS:      osName,
		Type:    detectType(userAgent),
	}
	return meta
}

func detectBrowser(ua string) string {
	switch {
	case ua == "":
		return UnknownBrowser
	case strings.Contains(ua, "Edg/") || strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "SamsungBrowser"):
		return "Samsung Internet"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/") || strings.Contains(ua, "CriOS/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/") && strings.Contains(ua, "Version/"):
		return "Safari"
	case strings.Contains(ua, "MSIE") || strings.Contains(ua, "Trident/"):
		return "Internet Explorer"
	default:
		return UnknownBrowser
	}
}

func detectOS(ua string) string {
	switch {
	case ua == "":
		return UnknownOS
	case strings.Contains(ua, "Windows NT"):
		return "Windows"
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X") || strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "CrOS"):
		return "ChromeOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return UnknownOS
	}
}

func detectType(ua string) string {
	switch {
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		return TypeTablet
	case strings.Contains(ua, "Mobi") || strings.Contains(ua, "iPhone") ||
		strings.Contains(ua, "Android"):
		return TypeMobile
	default:
		return TypeDesktop
	}
}
