package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the vendor documentation at https://wiki.2n.com/

// HTTPAPIManual is the vendor's HTTP API manual, covering endpoint
// reference, authentication, and response envelopes.
const HTTPAPIManual = "https://wiki.2n.com/hip/hapi/latest/en"

// HTTPAPIServices is the guide for enabling the HTTP API services
// (System, Switch, I/O, Logging) and assigning account privileges
// on the device.
const HTTPAPIServices = "https://wiki.2n.com/hip/hapi/latest/en/2-popis-sluzeb-http-api"

// SwitchConfiguration explains switch modes (monostable, bistable),
// lock and hold states, and how switches map to door locks.
const SwitchConfiguration = "https://wiki.2n.com/hip/hapi/latest/en/5-prehled-funkci-http-api/5-3-api-switch"

// EventLogging documents the event log subscription endpoints and the
// event types individual device models can report.
const EventLogging = "https://wiki.2n.com/hip/hapi/latest/en/5-prehled-funkci-http-api/5-6-api-log"

// SecurityGuide covers HTTPS setup on the device, certificate upload,
// and recommended authentication settings.
const SecurityGuide = "https://wiki.2n.com/hip/hapi/latest/en/3-zabezpeceni-http-api"
