package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint writes a point with full control over tags and fields.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Writes are dropped silently when the client is disconnected.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("device_state",
//	    map[string]string{"device_id": "light-office", "room": "Office"},
//	    map[string]interface{}{"on": 1, "brightness": 80})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
