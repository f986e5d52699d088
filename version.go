package cairn

// Version is the library version reported by hosts.
var Version = "0.1.0"
