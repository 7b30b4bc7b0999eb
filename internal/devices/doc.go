// Package devices maintains the durable MAC to display-name table for Tilts.
//
// Every Tilt is identified by its normalised Bluetooth address (twelve
// uppercase hex digits). The Registry hands out a unique display name per
// address, starting with the device colour and appending -2, -3, ... on
// collision, and accepts explicit renames from users.
//
// Changes are held in memory and flushed to the Store by Commit. Callers
// processing a batch of readings wrap the batch in Autocommit so the whole
// batch costs one write.
//
// The devices file also carries sync rules that route a named Tilt's
// temperature to a block on another service:
//
//	names:
//	  DD7F97FC141E: Black
//	sync:
//	  - tilt: Black
//	    type: TempSensorExternal
//	    service: spark-one
//	    block: Fermenter Beer Sensor
package devices
