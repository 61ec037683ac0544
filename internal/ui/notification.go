package ui

import (
	"os"
	"os/exec"
	"strings"
)

const (
	IconDialogError = "dialog-error"
	IconDialogWarn  = "dialog-warning"

	UrgencyNormal   = "normal"
	UrgencyCritical = "critical"
)

func NotifyWarn(title, text string) {
	NotifySend(UrgencyNormal, title, text, IconDialogWarn)
}

func NotifyError(title, text string) {
	NotifySend(UrgencyCritical, title, text, IconDialogError)
}

// NotifySend sends a desktop notification to the user of the current
// display session, if one can be found. Since the daemon usually runs as
// root, the notification has to be sent in the name of the session user.
func NotifySend(urgency, title, text, icon string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Warning("Cannot send notification, missing env variable 'DISPLAY'!")
		return
	}

	user := findDisplaySessionUser(display)
	if len(user) <= 0 {
		Warning("Cannot send notification, unable to detect user of current display session")
		return
	}

	output, err := exec.Command("id", "-u", user).Output()
	userIdString := strings.TrimSpace(string(output))
	if err != nil || len(userIdString) <= 0 {
		Warning("Cannot send notification, unable to detect user id of %s", user)
		return
	}

	cmd := exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+userIdString+"/bus",
		"notify-send",
		"-a", "fanforged",
		"-u", urgency,
		"-i", icon,
		title, text,
	)
	if err := cmd.Run(); err != nil {
		Error("Error sending notification: %v", err)
	}
}

func findDisplaySessionUser(display string) string {
	output, err := exec.Command("who").Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, display) {
			return strings.TrimSpace(strings.Fields(line)[0])
		}
	}
	return ""
}
