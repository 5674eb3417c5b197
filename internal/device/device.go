// Package device derives stable device identifiers and display titles from
// User-Agent strings.
package device

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
)

const unknownTitle = "Unknown device"

var namespace = uuid.MustParse("6f1c1d5e-3a52-4b8e-9a55-3f5a6d1f2b70")

// Info holds the normalized attributes a device id is derived from.
type Info struct {
	Browser  string
	OS       string
	Platform string
	Mobile   bool
	Bot      bool
}

// Parse extracts normalized device attributes from a User-Agent string.
func Parse(userAgent string) Info {
	ua := user_agent.New(strings.TrimSpace(userAgent))
	browser, _ := ua.Browser()

	return Info{
		Browser:  strings.ToLower(strings.TrimSpace(browser)),
		OS:       strings.ToLower(strings.TrimSpace(ua.OS())),
		Platform: strings.ToLower(strings.TrimSpace(ua.Platform())),
		Mobile:   ua.Mobile(),
		Bot:      ua.Bot(),
	}
}

// DeriveDeviceID maps a User-Agent to a device id. It never fails and
// returns the same id for the same input. Browser versions are ignored so an
// update does not detach the device from its session.
func DeriveDeviceID(userAgent string) string {
	info := Parse(userAgent)
	fingerprint := strings.Join([]string{
		info.Browser,
		info.OS,
		info.Platform,
		strconv.FormatBool(info.Mobile),
		strconv.FormatBool(info.Bot),
	}, "|")

	return uuid.NewSHA1(namespace, []byte(fingerprint)).String()
}

// Title returns a human-readable device name such as "Chrome on Windows 10".
func Title(userAgent string) string {
	ua := user_agent.New(strings.TrimSpace(userAgent))
	browser, _ := ua.Browser()
	os := ua.OS()

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return unknownTitle
	}
}
