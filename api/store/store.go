/* store.go
 * Contains the Store struct and NewStore function. The methods for this package
 * were split into two files: participants.go and events.go, each containing the
 * methods for interacting with that collection.
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Users  *mongo.Collection
		Events *mongo.Collection
	}
}

// NewStore initialises the db connection and collection handles
// Preconditions: Receives strings containing dbName and mongoURI
// Postconditions: Returns pointer to the Store object, or error if it occurs
func NewStore(dbName string, mongoURI string) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("dbName cannot be empty")
	}
	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(dbName)

	s := &Store{
		Client:   client,
		Database: db,
	}
	s.Collections.Users = db.Collection("users")
	s.Collections.Events = db.Collection("events")
	return s, nil
}
