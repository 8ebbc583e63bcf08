package schema

import (
	"reflect"
	"testing"
)

func TestParseParquetTag(t *testing.T) {
	type args struct {
		tag string
	}
	tests := []struct {
		name    string
		args    args
		want    *ParquetTag
		wantErr bool
	}{

		{
			name: "success",
			args: args{
				tag: "name=foo,type=varchar",
			},
			want: &ParquetTag{
				Name: "foo",
				Type: "VARCHAR",
			},
			wantErr: false,
		},
		{
			name: "alias type",
			args: args{
				tag: "name=tenure,type=int",
			},
			want: &ParquetTag{
				Name: "tenure",
				Type: "BIGINT",
			},
		},
		{
			name: "flags",
			args: args{
				tag: "name=total_charges,type=float,nullable,required",
			},
			want: &ParquetTag{
				Name:     "total_charges",
				Type:     "DOUBLE",
				Nullable: true,
				Required: true,
			},
		},
		{
			name: "skip",
			args: args{
				tag: "-",
			},
			want: &ParquetTag{Skip: true},
		},
		{
			name: "Extra comma",
			args: args{
				tag: "name=foo,type=varchar,",
			},
			want:    nil,
			wantErr: true,
		},
		{
			name: "additional unrecognized kv pair",
			args: args{
				tag: "name=foo,type=string,another=tag",
			},
			want:    nil,
			wantErr: true,
		},
		{
			name: "unsupported type",
			args: args{
				tag: "name=foo,type=timestamp",
			},
			want:    nil,
			wantErr: true,
		},
		{
			name: "missing type",
			args: args{
				tag: "name=foo",
			},
			want: &ParquetTag{
				Name: "foo",
			},
		},
		{
			name: "missing name",
			args: args{
				tag: "type=varchar",
			},
			want: &ParquetTag{
				Type: "VARCHAR",
			},
		},
		{
			name: "missing name and type",
			args: args{
				tag: "",
			},
			want:    nil,
			wantErr: true,
		},
		{
			name: "duplicate recognized tag",
			args: args{
				tag: "name=foo,type=string,name=bar",
			},
			want:    nil,
			wantErr: true,
		},
		{
			name: "spaces in kv pair and tag",
			args: args{
				tag: "name= foo, type =varchar ",
			},
			want: &ParquetTag{
				Name: "foo",
				Type: "VARCHAR",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParquetTag(tt.args.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseParquetTag() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseParquetTag() got = %v, want %v", got, tt.want)
			}
		})
	}
}
