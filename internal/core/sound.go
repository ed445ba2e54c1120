package core

// Channel identifies a playing sound voice.
type Channel int32

// NoChannel is held by actors that are not playing anything.
const NoChannel Channel = -1
