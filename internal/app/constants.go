package app

import "time"

// ClockSyncInterval is how often the remaining match time is rebroadcast while a timer runs.
const ClockSyncInterval = time.Second

// MaxPlayerColors caps the palette size a deployment may configure.
const MaxPlayerColors = 16
