package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

func TestClassFrequency(t *testing.T) {
	s := createLecturerStore(t)
	ctx := context.Background()

	f, err := s.ClassFrequency(ctx, ir.IRI(ex+"Lecturer"))
	require.NoError(t, err)
	assert.Equal(t, datasource.Frequency{Count: 2, Total: 3}, f)

	f, err = s.ClassFrequency(ctx, ir.IRI(ex+"FullProfessor"))
	require.NoError(t, err)
	assert.Equal(t, datasource.Frequency{Count: 1, Total: 3}, f)

	f, err = s.ClassFrequency(ctx, ir.IRI(ex+"Unknown"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.Count)
}

func TestPropertyFrequency(t *testing.T) {
	s := createLecturerStore(t)

	f, err := s.PropertyFrequency(context.Background(), ir.IRI(ex+"teacherOf"))
	require.NoError(t, err)
	assert.Equal(t, datasource.Frequency{Count: 2, Total: 10}, f)
}

func TestBroader(t *testing.T) {
	s := createLecturerStore(t)
	ctx := context.Background()

	_, err := s.InsertTriples(ctx, []ir.Triple{
		{Subject: ir.IRI(ex + "teacherOf"), Predicate: ir.IRI(ir.RDFSSubPropertyOf), Object: ir.IRI(ex + "involvedIn")},
		{Subject: ir.IRI(ex + "Lecturer"), Predicate: ir.IRI(ir.RDFSSubClassOf), Object: ir.IRI(ex + "Lecturer")},
	})
	require.NoError(t, err)

	got, err := s.BroaderClasses(ctx, ir.IRI(ex+"FullProfessor"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Term{ir.IRI(ex + "Lecturer")}, got)

	got, err = s.BroaderClasses(ctx, ir.IRI(ex+"Lecturer"))
	require.NoError(t, err)
	assert.Empty(t, got, "self loops are dropped")

	got, err = s.BroaderProperties(ctx, ir.IRI(ex+"teacherOf"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Term{ir.IRI(ex + "involvedIn")}, got)

	got, err = s.BroaderClasses(ctx, ir.Literal("SW"))
	require.NoError(t, err)
	assert.Empty(t, got, "literals have no hierarchy")
}
