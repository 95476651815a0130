package task_go

import (
	"github.com/sirupsen/logrus" //nolint:depguard // package-level logger for task-go
)

// Log is the package-level logger used throughout task-go.
var Log = logrus.New()
