package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Leo Tolstoy", (&User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}).FullName())
	assert.Equal(t, "Leo", (&User{Username: "leo", FirstName: "Leo"}).FullName())
	assert.Equal(t, "Tolstoy", (&User{Username: "leo", LastName: "Tolstoy"}).FullName())
	assert.Equal(t, "leo", (&User{Username: "leo"}).FullName())
}
