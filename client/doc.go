/*
Package client implements a Go client for the nello.io smart lock API.

# Basic Usage

	c, err := client.New(client.Options{})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := c.RequestToken(ctx, clientID, clientSecret); err != nil {
		log.Fatal(err)
	}
	locations, err := c.Locations(ctx)

# Time Windows

Recurring access grants are calendar events on the wire. Either hand
CreateTimeWindow raw iCalendar text or let the schedule package build it:

	tw, err := c.CreateTimeWindow(ctx, locationID, "Cleaning service", schedule.Description{
		Start: "20260105T090000Z",
		End:   "20260105T110000Z",
		Rule:  &schedule.RecurrenceRule{Raw: "FREQ=WEEKLY"},
	})

# Webhooks

Listen registers a webhook upstream and starts a local listener delivering
every pushed event to the callback exactly once:

	sub, err := c.Listen(ctx, locationID, client.ExternalURI{Host: "home.example.org", Port: 8099},
		func(res mo.Result[*webhook.Event]) {
			event, err := res.Get()
			...
		})
	defer sub.Close(ctx)

Configure Options.TLS to terminate TLS on the listener.
*/
package client
