package model

import "time"

// Listing represents a rental offering for one car published by its
// owner, as stored in the `listings` table.  The pool of bookable
// calendar dates lives in the listing_slots table; IsAvailable is a
// derived flag that is true exactly while that pool is non-empty.
// The flag is only ever recomputed together with slot mutations,
// inside the same transaction, so the two never drift apart.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user who owns the car and the listing.
//  CarID       – car being offered.
//  Title       – short human readable headline.
//  Description – optional free-form text.
//  PriceCents  – rental price per day in cents.
//  Location    – pickup location.
//  IsAvailable – derived: listing has at least one open slot.
//  PostedAt    – when the listing was published.
//  UpdatedAt   – timestamp of last update.
type Listing struct {
	ID          uint64    // listings.id
	OwnerID     uint64    // listings.owner_id
	CarID       uint64    // listings.car_id
	Title       string    // listings.title
	Description *string   // listings.description (nullable)
	PriceCents  uint32    // listings.price_cents
	Location    string    // listings.location
	IsAvailable bool      // listings.is_available
	PostedAt    time.Time // listings.posted_at
	UpdatedAt   time.Time // listings.updated_at
}

// ListingSlot is one bookable calendar date belonging to a listing,
// as stored in the `listing_slots` table.  SlotDate is a DATE column;
// the time of day is always midnight UTC.  The (listing_id, slot_date)
// pair is unique, which makes restoring dates on decline an
// INSERT IGNORE no-op for dates already present.
type ListingSlot struct {
	ListingID uint64    // listing_slots.listing_id
	SlotDate  time.Time // listing_slots.slot_date (DATE, midnight UTC)
}
