package kernel_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	t.Run("creates_a_valid_random_id", func(t *testing.T) {
		batchID := kernel.NewUUID()

		assert.NotEmpty(t, batchID.String())
		assert.NoError(t, batchID.Validate())
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", batchID.String())
	})

	t.Run("consecutive_ids_never_collide", func(t *testing.T) {
		batchID := kernel.NewUUID()
		driverID := kernel.NewUUID()

		assert.NotEqual(t, batchID.String(), driverID.String())
		assert.False(t, batchID.IsEqual(driverID))
	})
}

func TestUUIDFromString(t *testing.T) {
	canonical := "2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21"

	t.Run("parses_canonical_form", func(t *testing.T) {
		id, err := kernel.UUIDFromString(canonical)

		require.NoError(t, err)
		assert.Equal(t, canonical, id.String())
		assert.NoError(t, id.Validate())
	})

	t.Run("parses_braced_form", func(t *testing.T) {
		id, err := kernel.UUIDFromString("{" + canonical + "}")

		require.NoError(t, err)
		assert.Equal(t, canonical, id.String())
	})

	t.Run("parses_urn_form", func(t *testing.T) {
		id, err := kernel.UUIDFromString("urn:uuid:" + canonical)

		require.NoError(t, err)
		assert.Equal(t, canonical, id.String())
	})

	t.Run("parses_unhyphenated_form", func(t *testing.T) {
		id, err := kernel.UUIDFromString("2f6b9a1e40d34c889a7d6c1e5b0f3d21")

		require.NoError(t, err)
		assert.Equal(t, canonical, id.String())
	})

	t.Run("rejects_malformed_input", func(t *testing.T) {
		malformed := []string{
			"",
			"batch-42",
			"2f6b9a1e-40d3-4c88-9a7d",
			"2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21-trailing",
			"zzzb9a1e-40d3-4c88-9a7d-6c1e5b0f3d21",
			"2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d2g",
		}

		for _, input := range malformed {
			_, err := kernel.UUIDFromString(input)
			require.Error(t, err, "expected error for input: %q", input)
			assert.Contains(t, err.Error(), "invalid UUID format")
		}
	})
}

func TestUUIDFromBytes(t *testing.T) {
	raw := []byte{
		0x2f, 0x6b, 0x9a, 0x1e, 0x40, 0xd3, 0x4c, 0x88,
		0x9a, 0x7d, 0x6c, 0x1e, 0x5b, 0x0f, 0x3d, 0x21,
	}

	t.Run("rebuilds_id_from_binary_column", func(t *testing.T) {
		id, err := kernel.UUIDFromBytes(raw)

		require.NoError(t, err)
		assert.Equal(t, "2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21", id.String())
		assert.NoError(t, id.Validate())
	})

	t.Run("rejects_truncated_slice", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(raw[:3])

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid UUID format")
	})

	t.Run("rejects_all_zero_bytes", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(make([]byte, 16))

		require.Error(t, err)
		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUID_String(t *testing.T) {
	t.Run("renders_canonical_hex_form", func(t *testing.T) {
		id := kernel.NewUUID()

		assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id.String())
	})

	t.Run("is_stable_across_calls", func(t *testing.T) {
		id, err := kernel.UUIDFromString("2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21")
		require.NoError(t, err)

		assert.Equal(t, "2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21", id.String())
		assert.Equal(t, id.String(), id.String())
	})
}

func TestUUID_Bytes(t *testing.T) {
	t.Run("exposes_the_underlying_value", func(t *testing.T) {
		id := kernel.NewUUID()
		underlying := id.Bytes()

		assert.IsType(t, uuid.UUID{}, underlying)
		assert.Equal(t, id.String(), underlying.String())
	})

	t.Run("returned_copy_does_not_alias_the_id", func(t *testing.T) {
		id := kernel.NewUUID()
		before := id.String()

		copied := id.Bytes()
		for i := range copied {
			copied[i] = 0xFF
		}

		assert.Equal(t, before, id.String())
		assert.NoError(t, id.Validate())
	})
}

func TestUUID_IsEqual(t *testing.T) {
	t.Run("same_value_compares_equal_both_ways", func(t *testing.T) {
		a, err := kernel.UUIDFromString("2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21")
		require.NoError(t, err)
		b, err := kernel.UUIDFromString("2f6b9a1e-40d3-4c88-9a7d-6c1e5b0f3d21")
		require.NoError(t, err)

		assert.True(t, a.IsEqual(b))
		assert.True(t, b.IsEqual(a))
	})

	t.Run("distinct_values_compare_unequal", func(t *testing.T) {
		a := kernel.NewUUID()
		b := kernel.NewUUID()

		assert.False(t, a.IsEqual(b))
		assert.False(t, b.IsEqual(a))
	})

	t.Run("zero_values_are_equal_to_each_other_only", func(t *testing.T) {
		var a, b kernel.UUID
		c := kernel.NewUUID()

		assert.True(t, a.IsEqual(b))
		assert.False(t, a.IsEqual(c))
	})
}

func TestUUID_Validate(t *testing.T) {
	t.Run("constructed_id_is_valid", func(t *testing.T) {
		assert.NoError(t, kernel.NewUUID().Validate())
	})

	t.Run("zero_value_is_rejected", func(t *testing.T) {
		var id kernel.UUID

		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, id.Validate())
	})

	t.Run("parsed_nil_uuid_is_rejected", func(t *testing.T) {
		id, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)

		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, id.Validate())
	})
}

func TestUUID_AsAggregateIdentifier(t *testing.T) {
	type driverAssignment struct {
		BatchID  kernel.UUID
		DriverID kernel.UUID
	}

	t.Run("populated_fields_validate", func(t *testing.T) {
		assignment := driverAssignment{
			BatchID:  kernel.NewUUID(),
			DriverID: kernel.NewUUID(),
		}

		assert.NoError(t, assignment.BatchID.Validate())
		assert.NoError(t, assignment.DriverID.Validate())
	})

	t.Run("uninitialized_fields_are_caught", func(t *testing.T) {
		var assignment driverAssignment

		assert.Error(t, assignment.BatchID.Validate())
		assert.Error(t, assignment.DriverID.Validate())
	})
}
