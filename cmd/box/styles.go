// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for success states and completed builds.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for errors and failed validation.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for labels and attention-needed items.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - used for paths and directory names.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorCompression is cyan - used for entry compression markers.
	ColorCompression = lipgloss.Color("#06B6D4")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// LabelStyle is for attribute names in info output ("API Version:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// PathStyle is for directories in archive listings.
	PathStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// CompressionStyle is for "[GZ]" and "[BZ2]" entry markers.
	CompressionStyle = lipgloss.NewStyle().
				Foreground(ColorCompression)
)
